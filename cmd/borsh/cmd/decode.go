/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/borshkit/pkg/api"
	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/registry"
)

// sampleJoinQuiz is the join_quiz instruction decoded when no input is given.
const sampleJoinQuiz = "00e1f505000000001027000000000000"

type decodeResult struct {
	Line     int           `json:"line,omitempty"`
	Schema   string        `json:"schema"`
	Consumed int           `json:"consumed"`
	Record   *codec.Record `json:"record,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [hex]",
		Short: "Decode a hex buffer against a schema",
		Long: `Decode a hex-encoded buffer (optionally 0x-prefixed) against a schema.

Without --strict, bytes after the last field are ignored and the consumed
byte count is reported. With --batch, every non-empty line of the file ("-"
for stdin) is decoded in parallel and results are printed in input order.

Examples:
  borsh decode
  borsh decode 00e1f505000000001027000000000000 --schema join_quiz
  borsh decode 0x0100e1f505000000001027000000000000 --schema join_quiz_instruction -o json
  borsh decode --batch payloads.txt --strict`,
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

			name, _ := cmd.Flags().GetString("schema")
			schema, err := a.registry.Lookup(name)
			if err != nil {
				return err
			}

			strict := a.cfg.Codec.Strict
			if f := cmd.Flags().Lookup("strict"); f.Changed {
				strict, _ = cmd.Flags().GetBool("strict")
			}
			mode := codec.Lenient
			if strict {
				mode = codec.Strict
			}
			driver := codec.NewDriver(mode)

			batch, _ := cmd.Flags().GetString("batch")
			if batch != "" {
				if len(args) > 0 {
					return fmt.Errorf("a hex argument cannot be combined with --batch")
				}
				return runBatchDecode(cmd, a, driver, schema, batch, format)
			}

			input := sampleJoinQuiz
			if len(args) == 1 {
				input = args[0]
			}
			payload, err := api.ParseHex(input)
			if err != nil {
				return err
			}

			rec, err := driver.Decode(schema, payload)
			if err != nil {
				return err
			}
			a.logger.Debug("decoded", "schema", name, "consumed", rec.Consumed(), "length", len(payload), "mode", mode.String())

			out := cmd.OutOrStdout()
			if format == outputJSON {
				return writeJSON(out, decodeResult{Schema: name, Consumed: rec.Consumed(), Record: rec})
			}
			fmt.Fprintf(out, "%s %s\n", labelColor.Sprint("Decoded data:"), rec)
			if rec.Consumed() < len(payload) {
				fmt.Fprintf(out, "%d trailing bytes ignored\n", len(payload)-rec.Consumed())
			}
			return nil
		},
	}

	cmd.Flags().StringP("schema", "s", registry.JoinQuiz, "Schema to decode with")
	cmd.Flags().Bool("strict", false, "Reject bytes after the last field")
	cmd.Flags().String("batch", "", "Decode one hex buffer per line of this file (- for stdin)")
	addOutputFlag(cmd)
	return cmd
}

func runBatchDecode(cmd *cobra.Command, a *app, driver *codec.Driver, schema *codec.Schema, path, format string) error {
	lines, err := readBatch(cmd, path, a.cfg.Codec.MaxInputSize)
	if err != nil {
		return err
	}

	results := make([]decodeResult, len(lines))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, line := range lines {
		g.Go(func() error {
			res := decodeResult{Line: line.number, Schema: schema.Name()}
			payload, err := api.ParseHex(line.text)
			if err == nil {
				var rec *codec.Record
				if rec, err = driver.Decode(schema, payload); err == nil {
					res.Consumed, res.Record = rec.Consumed(), rec
				}
			}
			if err != nil {
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // workers record failures per line

	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		if format == outputJSON {
			if err := writeJSON(out, res); err != nil {
				return err
			}
			continue
		}
		if res.Error != "" {
			fmt.Fprintf(out, "%d\t%s\n", res.Line, errorColor.Sprint("error: "+res.Error))
		} else {
			fmt.Fprintf(out, "%d\t%s\n", res.Line, res.Record)
		}
	}

	a.logger.Debug("batch decoded", "schema", schema.Name(), "buffers", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d buffers failed to decode", failed, len(results))
	}
	return nil
}

type batchLine struct {
	number int
	text   string
}

// readBatch returns the non-empty lines of path with their 1-based line numbers.
func readBatch(cmd *cobra.Command, path string, maxInput int64) ([]batchLine, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	// Two hex digits per byte plus a 0x prefix and line ending.
	scanner.Buffer(make([]byte, 0, 64*1024), int(2*maxInput)+4)

	var lines []batchLine
	for n := 1; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lines = append(lines, batchLine{number: n, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return lines, nil
}
