package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evstack/near-da/pkg/cmd"
	rollconf "github.com/evstack/near-da/pkg/config"
)

const appName = "near-da"

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Client for the NEAR blob store contract",
		Long: `near-da submits blobs to a NEAR blob store contract and reads them back,
either from the command line or through an HTTP sidecar.`,
		SilenceUsage: true,
	}
	rollconf.AddGlobalFlags(rootCmd, appName)

	rootCmd.AddCommand(
		cmd.InitCmd(),
		cmd.KeysCmd(),
		cmd.SubmitCmd(),
		cmd.GetCmd(),
		cmd.GetAllCmd(),
		cmd.FastGetCmd(),
		cmd.ServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
