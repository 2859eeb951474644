package datypes

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// NamespaceVersionZero is the default namespace version.
const NamespaceVersionZero = uint8(0)

// Namespace is the logical partition blobs are grouped under.
type Namespace struct {
	Version uint8  `json:"version"`
	ID      uint32 `json:"id"`
}

// NewNamespace builds a namespace from a version and id.
func NewNamespace(version uint8, id uint32) Namespace {
	return Namespace{Version: version, ID: id}
}

// NamespaceFromString deterministically builds a version-0 namespace from a string.
func NamespaceFromString(s string) Namespace {
	hash := sha256.Sum256([]byte(s))
	return Namespace{Version: NamespaceVersionZero, ID: binary.BigEndian.Uint32(hash[:4])}
}

// ParseNamespace parses "<id>" or "<version>:<id>".
func ParseNamespace(s string) (Namespace, error) {
	versionStr, idStr, hasVersion := strings.Cut(strings.TrimSpace(s), ":")
	if !hasVersion {
		idStr, versionStr = versionStr, ""
	}

	ns := Namespace{Version: NamespaceVersionZero}
	if versionStr != "" {
		v, err := strconv.ParseUint(versionStr, 10, 8)
		if err != nil {
			return Namespace{}, fmt.Errorf("invalid namespace version %q: %w", versionStr, err)
		}
		ns.Version = uint8(v)
	}

	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return Namespace{}, fmt.Errorf("invalid namespace id %q: %w", idStr, err)
	}
	ns.ID = uint32(id)
	return ns, nil
}

// String returns the "<version>:<id>" form accepted by ParseNamespace.
func (n Namespace) String() string {
	return fmt.Sprintf("%d:%d", n.Version, n.ID)
}
