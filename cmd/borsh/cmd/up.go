/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/config"
)

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap configuration if needed and start the server",
		Long: `Create the configuration file with a generated API key if it does not exist,
then start the REST API server. This is the quickest way to get borsh running.

Examples:
  borsh up
  borsh up --data-dir ./mydata --port 9000 --print-key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			if config.ConfigExists(a.configPath) {
				cmd.Printf("✅ Loaded existing configuration from %s\n", a.configPath)
			} else {
				cmd.Printf("🔧 First run detected. Bootstrapping borsh...\n")

				cfg, err := config.BootstrapConfig(a.configPath, a.cfg.DataDir)
				if err != nil {
					return err
				}
				a.cfg.Security.APIKey = cfg.Security.APIKey
				cmd.Printf("✅ Configuration created at %s\n", a.configPath)

				if printKey, _ := cmd.Flags().GetBool("print-key"); printKey {
					cmd.Printf("\n🔑 API key: %s\n", cfg.Security.APIKey)
					cmd.Printf("⚠️  Store this key securely! It is also saved in %s\n", a.configPath)
				}
			}

			applyServeFlags(cmd, a)
			cmd.Printf("🚀 Starting borsh server on %s:%d\n", a.cfg.Bind, a.cfg.Port)
			cmd.Printf("📁 Data directory: %s\n", a.cfg.DataDir)
			return runServe(cmd, a)
		},
	}

	addServeFlags(cmd)
	cmd.Flags().Bool("print-key", false, "Print the generated API key on first run")
	return cmd
}
