/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with a generated API key",
		Long: `Create the borsh configuration file with a freshly generated API key.

The file is written with 0600 permissions. Existing files are left alone
unless --force is given.

Examples:
  borsh init
  borsh init --config ./borsh.yaml --data-dir ./data --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			if config.ConfigExists(a.configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", a.configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(a.configPath, a.cfg.DataDir)
			if err != nil {
				return err
			}
			a.cfg = cfg

			cmd.Printf("✅ Configuration created at %s\n", a.configPath)
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  borsh serve --config %s\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	return cmd
}
