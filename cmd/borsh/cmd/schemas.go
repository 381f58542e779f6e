/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/api"
)

func newSchemasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas [name]",
		Short: "List registered schemas or show one layout",
		Long: `List the built-in and configured schemas with their sizes, or print the
byte layout of a single schema.

Examples:
  borsh schemas
  borsh schemas join_quiz_instruction
  borsh schemas -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				schema, err := a.registry.Lookup(args[0])
				if err != nil {
					return err
				}
				info := api.DescribeSchema(schema)
				if format == outputJSON {
					return writeJSON(out, info)
				}
				return outputLayoutTable(out, info)
			}

			infos := make([]api.SchemaInfo, 0, a.registry.Len())
			for _, name := range a.registry.Names() {
				schema, err := a.registry.Lookup(name)
				if err != nil {
					return err
				}
				infos = append(infos, api.DescribeSchema(schema))
			}
			if format == outputJSON {
				return writeJSON(out, infos)
			}
			return outputSchemasTable(out, infos)
		},
	}

	addOutputFlag(cmd)
	return cmd
}
