/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/api"
	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/registry"
)

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <hex>",
		Short: "Store a payload",
		Long: `Validate a hex payload against a schema and store it in the payload store.
The payload must match the schema exactly; trailing bytes are rejected.
Prints the id of the stored payload.

Example:
  borsh put 00e1f505000000001027000000000000 --schema join_quiz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("schema")
			schema, err := a.registry.Lookup(name)
			if err != nil {
				return err
			}

			payload, err := api.ParseHex(args[0])
			if err != nil {
				return err
			}
			if _, err := codec.DecodeStrict(schema, payload); err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.Put(cmd.Context(), name, payload)
			if err != nil {
				return err
			}
			a.logger.Debug("stored payload", "schema", name, "id", id.String(), "size", len(payload))

			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", registry.JoinQuiz, "Schema of the payload")
	return cmd
}
