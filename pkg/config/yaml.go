package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrReadYaml is returned when the configuration file cannot be decoded.
var ErrReadYaml = errors.New("reading yaml config")

// DurationWrapper is a time.Duration that reads and writes as a string such as "30s".
type DurationWrapper struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d DurationWrapper) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DurationWrapper) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// SaveAsYaml writes the configuration to ConfigPath, with each field's comment tag as a
// head comment.
func (c *Config) SaveAsYaml() error {
	configPath := c.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("could not create directory %q: %w", filepath.Dir(configPath), err)
	}

	var root yaml.Node
	if err := root.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	addComments(&root, reflect.TypeOf(*c))

	data, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := "# near-da configuration. Flags and NEARDA_* environment variables override these values.\n\n"
	return os.WriteFile(configPath, append([]byte(header), data...), 0o600)
}

// addComments walks a mapping node next to the struct type it was encoded from.
func addComments(node *yaml.Node, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if node.Kind != yaml.MappingNode || t.Kind() != reflect.Struct {
		return
	}

	fields := make(map[string]reflect.StructField, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = f
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		f, ok := fields[key.Value]
		if !ok {
			continue
		}
		if comment := f.Tag.Get("comment"); comment != "" {
			key.HeadComment = comment
		}
		addComments(value, f.Type)
	}
}
