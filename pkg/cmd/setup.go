package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	rollconf "github.com/evstack/near-da/pkg/config"
	"github.com/evstack/near-da/pkg/da/compression"
	"github.com/evstack/near-da/pkg/da/near"
	datypes "github.com/evstack/near-da/pkg/da/types"
)

// ParseConfig loads the configuration and validates it.
func ParseConfig(cmd *cobra.Command) (rollconf.Config, error) {
	cfg, err := rollconf.Load(cmd)
	if err != nil {
		return rollconf.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return rollconf.Config{}, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// SetupLogger creates a zerolog logger writing to stderr.
//
// Configuration options:
//   - Output format (text or JSON)
//   - Log level (debug, info, warn, error); unknown levels fall back to info
//   - Caller information on every line
func SetupLogger(config rollconf.LogConfig) zerolog.Logger {
	return newLogger(config, os.Stderr)
}

func newLogger(config rollconf.LogConfig, out io.Writer) zerolog.Logger {
	if config.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if config.Trace {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// NewClient builds the NEAR client described by cfg.
func NewClient(cfg rollconf.Config, logger zerolog.Logger, metrics *near.Metrics) (*near.Client, error) {
	network, err := cfg.Network.Endpoints()
	if err != nil {
		return nil, err
	}
	key, err := cfg.KeyType()
	if err != nil {
		return nil, err
	}

	return near.NewClient(near.Config{
		Network:  network,
		Contract: cfg.Contract,
		Key:      key,
		Logger:   logger,
		Metrics:  metrics,
		Timeout:  cfg.RequestTimeout.Duration,
	})
}

// NewDataAvailability wraps client with compression when enabled.
func NewDataAvailability(cfg rollconf.Config, client datypes.DataAvailability, logger zerolog.Logger) datypes.DataAvailability {
	return compression.Wrap(client, cfg.Compression, logger)
}
