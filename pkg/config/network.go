package config

import (
	"errors"
	"fmt"
	"path/filepath"

	danear "github.com/evstack/near-da/pkg/da/near"
	"github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/signer"
)

// Known networks.
const (
	NetworkMainnet  = "mainnet"
	NetworkTestnet  = "testnet"
	NetworkLocalnet = "localnet"
	NetworkCustom   = "custom"
)

// Key sources.
const (
	KeyTypeFile      = "file"
	KeyTypeSeed      = "seed"
	KeyTypeSecretKey = "secret_key"
)

var knownNetworks = map[string]danear.Network{
	NetworkMainnet: {
		Primary: "https://rpc.mainnet.near.org",
		Archive: "https://archival-rpc.mainnet.near.org",
	},
	NetworkTestnet: {
		Primary: "https://rpc.testnet.near.org",
		Archive: "https://archival-rpc.testnet.near.org",
	},
	NetworkLocalnet: {
		Primary: "http://127.0.0.1:3030",
		Archive: "http://127.0.0.1:3030",
	},
}

// NetworkConfig selects the RPC endpoints.
type NetworkConfig struct {
	Name           string `mapstructure:"name" yaml:"name" comment:"NEAR network: mainnet, testnet, localnet or custom"`
	RPCAddress     string `mapstructure:"rpc_address" yaml:"rpc_address" comment:"Primary RPC endpoint. Required for the custom network, ignored otherwise."`
	ArchiveAddress string `mapstructure:"archive_address" yaml:"archive_address" comment:"Archive RPC endpoint for the custom network. Defaults to rpc_address."`
}

// Endpoints resolves the network to its primary and archive endpoints.
func (n NetworkConfig) Endpoints() (danear.Network, error) {
	if n.Name == NetworkCustom {
		if n.RPCAddress == "" {
			return danear.Network{}, errors.New("custom network requires an rpc address")
		}
		archive := n.ArchiveAddress
		if archive == "" {
			archive = n.RPCAddress
		}
		return danear.Network{Primary: n.RPCAddress, Archive: archive}, nil
	}

	network, ok := knownNetworks[n.Name]
	if !ok {
		return danear.Network{}, fmt.Errorf("unknown network %q", n.Name)
	}
	return network, nil
}

// KeyConfig selects the signing key. Only the fields of the selected type are read.
type KeyConfig struct {
	Type      string `mapstructure:"type" yaml:"type" comment:"Key source: file, seed or secret_key. Leave empty for a read-only client."`
	Path      string `mapstructure:"path" yaml:"path" comment:"Path to a NEAR credentials file (file type). Relative paths resolve against the home directory."`
	AccountID string `mapstructure:"account_id" yaml:"account_id" comment:"Signer account id (seed and secret_key types)"`
	Seed      string `mapstructure:"seed" yaml:"seed" comment:"Seed phrase (seed type)"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key" comment:"ed25519:<base58> secret key (secret_key type)"`
}

// KeyType converts the configuration into a signer.KeyType. An empty type yields a nil
// KeyType, which builds a read-only client.
func (k KeyConfig) KeyType() (signer.KeyType, error) {
	switch k.Type {
	case "":
		return nil, nil
	case KeyTypeFile:
		if k.Path == "" {
			return nil, errors.New("file key requires a path")
		}
		return signer.FileKey{Path: k.Path}, nil
	case KeyTypeSeed:
		if err := near.ValidateAccountID(k.AccountID); err != nil {
			return nil, fmt.Errorf("seed key account %q: %w", k.AccountID, err)
		}
		if k.Seed == "" {
			return nil, errors.New("seed key requires a seed")
		}
		return signer.SeedKey{AccountID: k.AccountID, Seed: k.Seed}, nil
	case KeyTypeSecretKey:
		if err := near.ValidateAccountID(k.AccountID); err != nil {
			return nil, fmt.Errorf("secret key account %q: %w", k.AccountID, err)
		}
		if k.SecretKey == "" {
			return nil, errors.New("secret_key key requires a secret key")
		}
		return signer.SecretKeyKey{AccountID: k.AccountID, SecretKey: k.SecretKey}, nil
	default:
		return nil, fmt.Errorf("unknown key type %q", k.Type)
	}
}

// KeyType is Key.KeyType with a relative file path resolved against RootDir.
func (c *Config) KeyType() (signer.KeyType, error) {
	kt, err := c.Key.KeyType()
	if err != nil {
		return nil, err
	}
	if fk, ok := kt.(signer.FileKey); ok && !filepath.IsAbs(fk.Path) {
		fk.Path = filepath.Join(c.RootDir, fk.Path)
		return fk, nil
	}
	return kt, nil
}
