/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/registry"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored payload",
		Long: `Delete a payload from the payload store.

Example:
  borsh delete 2zN6cFJ2Kx2pNWy1Qe4Rm2YVBbh --schema join_quiz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}

			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			name, _ := cmd.Flags().GetString("schema")

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), name, id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", name, id)
			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", registry.JoinQuiz, "Schema of the payload")
	return cmd
}
