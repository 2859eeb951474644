package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/evstack/near-da/pkg/da/compression"
	"github.com/evstack/near-da/pkg/near"
)

const (
	FlagPrefix = "nearda."

	// EnvPrefix prefixes every environment variable, e.g. NEARDA_NETWORK_NAME.
	EnvPrefix = "NEARDA"

	// Base configuration flags

	// FlagRootDir is a flag for specifying the root directory
	FlagRootDir = "home"

	// Network configuration flags

	// FlagNetwork is a flag for selecting the NEAR network (mainnet, testnet, localnet, custom)
	FlagNetwork = FlagPrefix + "network.name"
	// FlagRPCAddress is a flag for the primary RPC endpoint of a custom network
	FlagRPCAddress = FlagPrefix + "network.rpc_address"
	// FlagArchiveAddress is a flag for the archive RPC endpoint of a custom network
	FlagArchiveAddress = FlagPrefix + "network.archive_address"
	// FlagContract is a flag for the account id of the blob contract
	FlagContract = FlagPrefix + "contract"
	// FlagRequestTimeout controls the per-request timeout when talking to NEAR RPC
	FlagRequestTimeout = FlagPrefix + "request_timeout"

	// Key configuration flags

	// FlagKeyType selects where the signing key comes from (file, seed, secret_key)
	FlagKeyType = FlagPrefix + "key.type"
	// FlagKeyPath is the path of a NEAR credentials file
	FlagKeyPath = FlagPrefix + "key.path"
	// FlagKeyAccountID is the signer account id for seed and secret_key types
	FlagKeyAccountID = FlagPrefix + "key.account_id"
	// FlagKeySeed is the seed phrase for the seed type
	FlagKeySeed = FlagPrefix + "key.seed" // #nosec G101
	// FlagKeySecretKey is the encoded secret key for the secret_key type
	FlagKeySecretKey = FlagPrefix + "key.secret_key" // #nosec G101

	// Compression configuration flags

	// FlagCompression enables zstd compression of blob payloads
	FlagCompression = FlagPrefix + "compression.enabled"
	// FlagCompressionLevel is the zstd level (1-4)
	FlagCompressionLevel = FlagPrefix + "compression.level"
	// FlagCompressionMinRatio is the minimum fraction of bytes compression must save
	FlagCompressionMinRatio = FlagPrefix + "compression.min_ratio"

	// Server configuration flags

	// FlagServerAddress is a flag for specifying the HTTP sidecar address
	FlagServerAddress = FlagPrefix + "server.address"
	// FlagServerSubmitRate limits POST /blobs to this many requests per second
	FlagServerSubmitRate = FlagPrefix + "server.submit_rate"
	// FlagServerSubmitBurst is the burst allowed above the submit rate
	FlagServerSubmitBurst = FlagPrefix + "server.submit_burst"

	// Instrumentation configuration flags

	// FlagPrometheus is a flag for enabling Prometheus metrics
	FlagPrometheus = FlagPrefix + "instrumentation.prometheus"
	// FlagPrometheusListenAddr is a flag for specifying the Prometheus listen address
	FlagPrometheusListenAddr = FlagPrefix + "instrumentation.prometheus_listen_addr"

	// Logging configuration flags

	// FlagLogLevel is a flag for specifying the log level
	FlagLogLevel = FlagPrefix + "log.level"
	// FlagLogFormat is a flag for specifying the log format
	FlagLogFormat = FlagPrefix + "log.format"
	// FlagLogTrace is a flag for adding caller information to log lines
	FlagLogTrace = FlagPrefix + "log.trace"
)

// Config stores the near-da configuration.
type Config struct {
	RootDir string `mapstructure:"-" yaml:"-" comment:"Root directory where near-da files are located"`

	// NEAR network to talk to
	Network NetworkConfig `mapstructure:"network" yaml:"network"`

	Contract       string          `mapstructure:"contract" yaml:"contract" comment:"Account id of the blob contract, e.g. blobstore.testnet"`
	RequestTimeout DurationWrapper `mapstructure:"request_timeout" yaml:"request_timeout" comment:"Timeout of a single RPC round trip. Examples: \"10s\", \"1m\"."`

	// Signing key
	Key KeyConfig `mapstructure:"key" yaml:"key"`

	Compression compression.Config `mapstructure:"compression" yaml:"compression"`

	// HTTP sidecar configuration
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Instrumentation configuration
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`

	// Logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" comment:"Log level (debug, info, warn, error)"`
	Format string `mapstructure:"format" yaml:"format" comment:"Log format (text, json)"`
	Trace  bool   `mapstructure:"trace" yaml:"trace" comment:"Include the caller file and line in every log line"`
}

// ServerConfig contains the HTTP sidecar configuration parameters
type ServerConfig struct {
	Address     string  `mapstructure:"address" yaml:"address" comment:"Address to bind the HTTP sidecar to (host:port). Default: 127.0.0.1:7331"`
	SubmitRate  float64 `mapstructure:"submit_rate" yaml:"submit_rate" comment:"Maximum submit requests per second accepted by the sidecar. 0 disables the limit."`
	SubmitBurst int     `mapstructure:"submit_burst" yaml:"submit_burst" comment:"Submit requests allowed in a burst above submit_rate."`
}

// Validate checks every section and reports all problems at once.
// It creates the config directory if it does not exist.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("root directory cannot be empty")
	}

	fullDir := filepath.Dir(c.ConfigPath())
	if err := os.MkdirAll(fullDir, 0o750); err != nil {
		return fmt.Errorf("could not create directory %q: %w", fullDir, err)
	}

	var multiErr error
	if _, err := c.Network.Endpoints(); err != nil {
		multiErr = errors.Join(multiErr, err)
	}
	if err := near.ValidateAccountID(c.Contract); err != nil {
		multiErr = errors.Join(multiErr, fmt.Errorf("invalid contract %q: %w", c.Contract, err))
	}
	if _, err := c.Key.KeyType(); err != nil {
		multiErr = errors.Join(multiErr, err)
	}
	if c.RequestTimeout.Duration <= 0 {
		multiErr = errors.Join(multiErr, fmt.Errorf("request timeout must be positive"))
	}
	if c.Compression.Enabled && !c.Compression.Level.Valid() {
		multiErr = errors.Join(multiErr, fmt.Errorf("invalid compression level %d", c.Compression.Level))
	}
	if c.Compression.MinRatio < 0 || c.Compression.MinRatio >= 1 {
		multiErr = errors.Join(multiErr, fmt.Errorf("compression min ratio must be in [0, 1)"))
	}
	if c.Server.SubmitRate < 0 {
		multiErr = errors.Join(multiErr, fmt.Errorf("submit rate cannot be negative"))
	}
	if c.Server.SubmitRate > 0 && c.Server.SubmitBurst < 1 {
		multiErr = errors.Join(multiErr, fmt.Errorf("submit burst must be at least 1 when a submit rate is set"))
	}
	if c.Instrumentation != nil {
		if err := c.Instrumentation.ValidateBasic(); err != nil {
			multiErr = errors.Join(multiErr, err)
		}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		multiErr = errors.Join(multiErr, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return multiErr
}

// ConfigPath returns the path to the configuration file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.RootDir, AppConfigDir, ConfigName)
}

// AddGlobalFlags registers the basic configuration flags that are common across commands.
// This includes logging configuration and root directory settings.
func AddGlobalFlags(cmd *cobra.Command, defaultHome string) {
	def := DefaultConfig()

	cmd.PersistentFlags().String(FlagLogLevel, def.Log.Level, "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(FlagLogFormat, def.Log.Format, "Set the log format (text, json)")
	cmd.PersistentFlags().Bool(FlagLogTrace, def.Log.Trace, "Include the caller file and line in every log line")
	cmd.PersistentFlags().String(FlagRootDir, DefaultRootDirWithName(defaultHome), "Root directory for application data")
}

// AddFlags adds near-da specific configuration options to cobra Command.
func AddFlags(cmd *cobra.Command) {
	def := DefaultConfig()

	cmd.Flags().String(FlagNetwork, def.Network.Name, "NEAR network (mainnet, testnet, localnet, custom)")
	cmd.Flags().String(FlagRPCAddress, def.Network.RPCAddress, "primary RPC endpoint (custom network only)")
	cmd.Flags().String(FlagArchiveAddress, def.Network.ArchiveAddress, "archive RPC endpoint (custom network only, defaults to the primary)")
	cmd.Flags().String(FlagContract, def.Contract, "account id of the blob contract")
	cmd.Flags().Duration(FlagRequestTimeout, def.RequestTimeout.Duration, "per-request timeout when talking to NEAR RPC")

	cmd.Flags().String(FlagKeyType, def.Key.Type, "signing key source (file, seed, secret_key); empty for read-only")
	cmd.Flags().String(FlagKeyPath, def.Key.Path, "path to a NEAR credentials file, relative paths resolve against the home directory")
	cmd.Flags().String(FlagKeyAccountID, def.Key.AccountID, "signer account id (seed and secret_key types)")
	cmd.Flags().String(FlagKeySeed, def.Key.Seed, "seed phrase (seed type)")
	cmd.Flags().String(FlagKeySecretKey, def.Key.SecretKey, "ed25519:<base58> secret key (secret_key type)")

	cmd.Flags().Bool(FlagCompression, def.Compression.Enabled, "compress blob payloads with zstd")
	cmd.Flags().Int(FlagCompressionLevel, int(def.Compression.Level), "zstd level (1 fastest, 2 default, 3 better, 4 best)")
	cmd.Flags().Float64(FlagCompressionMinRatio, def.Compression.MinRatio, "minimum fraction of bytes saved for a compressed payload to be kept")

	cmd.Flags().String(FlagServerAddress, def.Server.Address, "HTTP sidecar address (host:port)")
	cmd.Flags().Float64(FlagServerSubmitRate, def.Server.SubmitRate, "maximum sidecar submit requests per second (0 disables)")
	cmd.Flags().Int(FlagServerSubmitBurst, def.Server.SubmitBurst, "sidecar submit burst above the rate")

	instrDef := DefaultInstrumentationConfig()
	cmd.Flags().Bool(FlagPrometheus, instrDef.Prometheus, "enable Prometheus metrics")
	cmd.Flags().String(FlagPrometheusListenAddr, instrDef.PrometheusListenAddr, "Prometheus metrics listen address")
}

// Load reads the configuration. Precedence, lowest first: defaults, the YAML file under
// the home directory, environment variables and flags.
func Load(cmd *cobra.Command) (Config, error) {
	home, _ := cmd.Flags().GetString(FlagRootDir)
	if home == "" {
		home = DefaultRootDir
	} else if !filepath.IsAbs(home) {
		absHome, err := filepath.Abs(home)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		home = absHome
	}

	v := viper.New()
	v.SetConfigType(ConfigExtension)
	v.SetConfigFile(filepath.Join(home, AppConfigDir, ConfigName))

	if err := bindFlags(cmd, v); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, errors.Join(ErrReadYaml, err)
		}
	}

	return loadFromViper(v, home)
}

// loadFromViper decodes the viper settings on top of DefaultConfig.
func loadFromViper(v *viper.Viper, home string) (Config, error) {
	cfg := DefaultConfig()
	cfg.RootDir = home

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationWrapperHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, errors.Join(ErrReadYaml, fmt.Errorf("failed creating decoder: %w", err))
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return cfg, errors.Join(ErrReadYaml, fmt.Errorf("failed decoding viper: %w", err))
	}

	return cfg, nil
}

func durationWrapperHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if t != reflect.TypeOf((*DurationWrapper)(nil)).Elem() {
		return data, nil
	}
	switch d := data.(type) {
	case string:
		duration, err := time.ParseDuration(d)
		if err != nil {
			return nil, err
		}
		return DurationWrapper{Duration: duration}, nil
	case time.Duration:
		return DurationWrapper{Duration: d}, nil
	}
	return data, nil
}

// bindFlags binds every flag, minus the prefix, to its viper key and environment variable.
func bindFlags(cmd *cobra.Command, v *viper.Viper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bindFlags failed: %v", r)
		}
	}()

	envName := strings.NewReplacer(".", "_", "-", "_")
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == FlagRootDir {
			return
		}
		key := strings.TrimPrefix(f.Name, FlagPrefix)

		// e.g. --nearda.network.name binds to NEARDA_NETWORK_NAME
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(envName.Replace(key))); err != nil {
			panic(err)
		}

		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return err
}
