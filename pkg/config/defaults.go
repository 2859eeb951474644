package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/evstack/near-da/pkg/da/compression"
)

const (
	// ConfigFileName is the base name of the near-da configuration file without extension.
	ConfigFileName = "nearda"
	// ConfigExtension is the file extension for the configuration file without the leading dot.
	ConfigExtension = "yaml"
	// ConfigName is the filename for the near-da configuration file.
	ConfigName = ConfigFileName + "." + ConfigExtension
	// AppConfigDir is the directory name for the app configuration.
	AppConfigDir = "config"
)

// DefaultRootDir returns the default root directory for near-da
var DefaultRootDir = DefaultRootDirWithName(ConfigFileName)

// DefaultRootDirWithName returns the default root directory for an application,
// based on the app name and the user's home directory
func DefaultRootDirWithName(appName string) string {
	if appName == "" {
		appName = ConfigFileName
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, "."+appName)
}

// DefaultConfig keeps default values of Config
func DefaultConfig() Config {
	return Config{
		RootDir: DefaultRootDir,
		Network: NetworkConfig{
			Name: NetworkTestnet,
		},
		RequestTimeout:  DurationWrapper{60 * time.Second},
		Compression:     compression.DefaultConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Trace:  false,
		},
		Server: ServerConfig{
			Address:     "127.0.0.1:7331",
			SubmitBurst: 1,
		},
	}
}
