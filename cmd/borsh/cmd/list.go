/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/registry"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored payload ids of a schema",
		Long: `List the ids of the payloads stored under a schema, oldest first.

Example:
  borsh list --schema join_quiz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("schema")
			if _, err := a.registry.Lookup(name); err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ids, err := store.List(cmd.Context(), name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == outputJSON {
				strs := make([]string, 0, len(ids))
				for _, id := range ids {
					strs = append(strs, id.String())
				}
				return writeJSON(out, strs)
			}

			if len(ids) == 0 {
				fmt.Fprintln(out, "No payloads found")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED")
			for _, id := range ids {
				fmt.Fprintf(w, "%s\t%s\n", id, id.Time().UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringP("schema", "s", registry.JoinQuiz, "Schema to list")
	addOutputFlag(cmd)
	return cmd
}
