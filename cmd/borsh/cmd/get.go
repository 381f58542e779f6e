/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/hex"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/api"
	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/registry"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a stored payload",
		Long: `Fetch a stored payload and decode it against its schema.

Example:
  borsh get 2zN6cFJ2Kx2pNWy1Qe4Rm2YVBbh --schema join_quiz`,
		Args: cobra.ExactArgs(1),
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
			schema, err := a.registry.Lookup(name)
			if err != nil {
				return err
			}

			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), name, id)
			if err != nil {
				return err
			}
			rec, err := codec.DecodeStrict(schema, entry.Payload)
			if err != nil {
				return fmt.Errorf("stored payload no longer matches schema %q: %w", name, err)
			}

			out := cmd.OutOrStdout()
			if format == outputJSON {
				return writeJSON(out, api.RecordResponse{
					ID:        entry.ID.String(),
					Schema:    name,
					CreatedAt: entry.CreatedAt.UTC(),
					Hex:       hex.EncodeToString(entry.Payload),
					Record:    rec,
				})
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID:\t%s\n", entry.ID)
			fmt.Fprintf(w, "Schema:\t%s\n", name)
			fmt.Fprintf(w, "Created:\t%s\n", entry.CreatedAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "Hex:\t%s\n", hex.EncodeToString(entry.Payload))
			fmt.Fprintf(w, "Record:\t%s\n", rec)
			return w.Flush()
		},
	}

	cmd.Flags().StringP("schema", "s", registry.JoinQuiz, "Schema of the payload")
	addOutputFlag(cmd)
	return cmd
}
