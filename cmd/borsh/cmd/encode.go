/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/api"
	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/registry"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode field values into a hex buffer",
		Long: `Encode field values against a schema and print the result as hex.

Values come from --json, a JSON object, and from repeated --set name=value
flags, which win over --json. Nested fields use dotted names. Byte arrays
take 0x-prefixed hex.

Examples:
  borsh encode --schema join_quiz --set bet=100000000 --set fee=10000
  borsh encode --schema join_quiz_instruction --set instruction=1 --set data.bet=5 --set data.fee=1
  borsh encode --schema join_quiz --json '{"bet": 100000000, "fee": 10000}'`,
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
			schema, err := a.registry.Lookup(name)
			if err != nil {
				return err
			}

			rawJSON, _ := cmd.Flags().GetString("json")
			sets, _ := cmd.Flags().GetStringArray("set")
			values, err := buildValues(rawJSON, sets)
			if err != nil {
				return err
			}

			data, err := codec.Encode(schema, codec.Map(values))
			if err != nil {
				return err
			}
			a.logger.Debug("encoded", "schema", name, "size", len(data))

			out := cmd.OutOrStdout()
			if format == outputJSON {
				return writeJSON(out, api.EncodeResponse{Schema: name, Hex: hex.EncodeToString(data), Size: len(data)})
			}
			fmt.Fprintln(out, hex.EncodeToString(data))
			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", registry.JoinQuiz, "Schema to encode with")
	cmd.Flags().String("json", "", "Field values as a JSON object")
	cmd.Flags().StringArray("set", nil, "Field value as name=value (repeatable, dotted names for nested fields)")
	addOutputFlag(cmd)
	return cmd
}

// buildValues merges a JSON object with name=value assignments.
func buildValues(rawJSON string, sets []string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	if rawJSON != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(rawJSON)))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
	}

	for _, set := range sets {
		name, value, ok := strings.Cut(set, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", set)
		}
		if err := setPath(values, strings.Split(name, "."), parseValue(value)); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", set, err)
		}
	}
	return values, nil
}

// parseValue keeps hex literals as strings for byte arrays and treats
// everything else as a number literal.
func parseValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return json.Number(s)
}

func setPath(values map[string]interface{}, path []string, v interface{}) error {
	for _, part := range path[:len(path)-1] {
		next, ok := values[part]
		if !ok {
			child := map[string]interface{}{}
			values[part] = child
			values = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%q is not a nested record", part)
		}
		values = child
	}
	values[path[len(path)-1]] = v
	return nil
}
