package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	rollconf "github.com/evstack/near-da/pkg/config"
)

// InitCmd writes a new near-da config file under the home directory.
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize near-da config",
		Long: fmt.Sprintf(`This command writes a new %s file to the config directory of the home directory.
Values given as flags are written to the file. An existing file is never overwritten.`, rollconf.ConfigName),
		RunE: func(cmd *cobra.Command, args []string) error {
			homePath, err := cmd.Flags().GetString(rollconf.FlagRootDir)
			if err != nil {
				return fmt.Errorf("error reading home flag: %w", err)
			}
			if homePath == "" {
				homePath = rollconf.DefaultRootDir
			}

			configPath := filepath.Join(homePath, rollconf.AppConfigDir, rollconf.ConfigName)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists at %s", configPath)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}

			cfg, err := rollconf.Load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("error validating config: %w", err)
			}

			if err := cfg.SaveAsYaml(); err != nil {
				return fmt.Errorf("error writing %s file: %w", rollconf.ConfigName, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized near-da config file at %s\n", cfg.ConfigPath())
			return nil
		},
	}
	rollconf.AddFlags(cmd)
	return cmd
}
