/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/config"
	"github.com/ssargent/borshkit/pkg/di"
	"github.com/ssargent/borshkit/pkg/logging"
	"github.com/ssargent/borshkit/pkg/registry"
	"github.com/ssargent/borshkit/pkg/storage"
)

var container *di.Container

// SetContainer injects the dependency container used by the commands.
func SetContainer(c *di.Container) {
	container = c
}

// app is the per-invocation state built by the root command.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	registry   *registry.Registry
}

type appKey struct{}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("application state not initialized")
	}
	return a, nil
}

// openStore opens the payload store of the configured data directory.
func (a *app) openStore() (*storage.PayloadStore, error) {
	if container == nil {
		return nil, errors.New("dependency container not initialized")
	}
	if err := os.MkdirAll(a.cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return container.GetStoreFactory().OpenStore(a.cfg.DataDir, a.registry)
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "borsh",
		Short: "borsh - fixed-layout binary record codec",
		Long: `borsh decodes and encodes Borsh-style binary records: fixed-width
little-endian integers and byte arrays laid out in schema order with no
padding. Schemas come built in or from the layout tables of the config file.

Run without arguments, "borsh decode" decodes the sample join_quiz
instruction 00e1f505000000001027000000000000.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}

			cfg, err := config.Resolve(configPath)
			if err != nil {
				return err
			}
			if f := cmd.Flags().Lookup("data-dir"); f != nil && f.Changed {
				cfg.DataDir = f.Value.String()
			}
			if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
				cfg.Logging.Level = f.Value.String()
			}

			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			reg, err := registry.Default(cfg.Schemas...)
			if err != nil {
				return fmt.Errorf("failed to load schemas: %w", err)
			}
			logger.Debug("configuration loaded", "path", configPath, "schemas", reg.Len(), "data_dir", cfg.DataDir)

			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
				configPath: configPath,
				cfg:        cfg,
				logger:     logger,
				registry:   reg,
			}))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ~/.config/borsh/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "./data", "Data directory for the payload store")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newDecodeCmd(),
		newEncodeCmd(),
		newSchemasCmd(),
		newPutCmd(),
		newGetCmd(),
		newListCmd(),
		newDeleteCmd(),
		newInitCmd(),
		newServeCmd(),
		newUpCmd(),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
