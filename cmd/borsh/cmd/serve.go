/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the borsh REST API server.

Every /api/v1 route requires the X-API-Key header. The key comes from the
configuration file (see "borsh init"), BORSH_SECURITY_API_KEY, or --api-key.

Examples:
  borsh serve
  borsh serve --port 9000 --bind 0.0.0.0 --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			applyServeFlags(cmd, a)
			return runServe(cmd, a)
		},
	}

	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	cmd.Flags().String("api-key", "", "API key for client authentication")
	cmd.Flags().Bool("strict", false, "Reject trailing bytes unless a request sets ?strict=false")
}

// applyServeFlags copies explicitly set flags over the configuration.
func applyServeFlags(cmd *cobra.Command, a *app) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		a.cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("bind") {
		a.cfg.Bind, _ = flags.GetString("bind")
	}
	if flags.Changed("api-key") {
		a.cfg.Security.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("strict") {
		a.cfg.Codec.Strict, _ = flags.GetBool("strict")
	}
}

func runServe(cmd *cobra.Command, a *app) error {
	if a.cfg.Security.APIKey == "" || a.cfg.Security.APIKey == "auto" {
		return errors.New("no API key configured (run 'borsh init' or pass --api-key)")
	}
	if container == nil {
		return errors.New("dependency container not initialized")
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting server",
		"bind", a.cfg.Bind, "port", a.cfg.Port, "data_dir", a.cfg.DataDir, "schemas", a.registry.Len())

	starter := container.GetServerFactory().CreateServerStarter()
	return starter.StartServer(ctx, a.registry, store, api.ServerConfig{
		Port:         a.cfg.Port,
		Bind:         a.cfg.Bind,
		APIKey:       a.cfg.Security.APIKey,
		Strict:       a.cfg.Codec.Strict,
		MaxInputSize: a.cfg.Codec.MaxInputSize,
	})
}
