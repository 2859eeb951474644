package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	rollconf "github.com/evstack/near-da/pkg/config"
	"github.com/evstack/near-da/pkg/near"
	"github.com/evstack/near-da/pkg/signer"
)

const flagKeyOutput = "key-file"

type keyInfo struct {
	AccountID string `json:"account_id"`
	PublicKey string `json:"public_key"`
	Path      string `json:"path,omitempty"`
}

// KeysCmd groups the signing key commands.
func KeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the signing key",
	}
	cmd.AddCommand(keysGenerateCmd(), keysShowCmd())
	return cmd
}

func keysGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <account-id>",
		Short: "Generate a new ed25519 key and write it as a NEAR credentials file",
		Long: `Generates a random ed25519 key for the account and writes it in the NEAR credentials
file format. The public key still has to be added to the account as an access key.
Existing files are never overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID := args[0]
			if err := near.ValidateAccountID(accountID); err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString(flagKeyOutput)
			if path == "" {
				path = filepath.Join(rollconf.AppConfigDir, accountID+".json")
			}
			if !filepath.IsAbs(path) {
				home, _ := cmd.Flags().GetString(rollconf.FlagRootDir)
				if home == "" {
					home = rollconf.DefaultRootDir
				}
				path = filepath.Join(home, path)
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("key file already exists at %s", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check key file: %w", err)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("failed to create key directory: %w", err)
			}

			sk, err := near.GenerateSecretKey()
			if err != nil {
				return err
			}
			s := signer.NewInMemorySigner(accountID, sk)
			if err := signer.WriteKeyFile(path, s); err != nil {
				return err
			}

			return printKeyInfo(cmd, keyInfo{AccountID: accountID, PublicKey: s.PublicKey().String(), Path: path})
		},
	}
	cmd.Flags().String(flagKeyOutput, "", "where to write the key file (default <home>/config/<account-id>.json)")
	addOutputFlag(cmd)
	return cmd
}

func keysShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the account and public key of the configured signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ParseConfig(cmd)
			if err != nil {
				return fmt.Errorf("error parsing config: %w", err)
			}
			kt, err := cfg.KeyType()
			if err != nil {
				return err
			}
			if kt == nil {
				return fmt.Errorf("no signing key configured: %w", signer.ErrAnonymous)
			}

			s, err := signer.Provision(kt)
			if err != nil {
				return err
			}
			info := keyInfo{AccountID: s.AccountID(), PublicKey: s.PublicKey().String()}
			if fk, ok := kt.(signer.FileKey); ok {
				info.Path = fk.Path
			}
			return printKeyInfo(cmd, info)
		},
	}
	addOutputFlag(cmd)
	rollconf.AddFlags(cmd)
	return cmd
}

func printKeyInfo(cmd *cobra.Command, info keyInfo) error {
	if output, _ := cmd.Flags().GetString(flagOutput); output == "json" {
		return writeJSON(cmd.OutOrStdout(), info)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "account:    %s\n", info.AccountID)
	fmt.Fprintf(out, "public key: %s\n", info.PublicKey)
	if info.Path != "" {
		fmt.Fprintf(out, "key file:   %s\n", info.Path)
	}
	return nil
}
