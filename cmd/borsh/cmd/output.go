package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ssargent/borshkit/pkg/api"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var (
	labelColor = color.New(color.FgCyan)
	errorColor = color.New(color.FgRed)
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputText, "Output format (text, json)")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case outputText, outputJSON:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// writeJSON writes v as one line of JSON.
func writeJSON(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// outputSchemasTable lists schemas one per line
func outputSchemasTable(w io.Writer, infos []api.SchemaInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tFIELDS")
	for _, info := range infos {
		fields := make([]string, 0, len(info.Fields))
		for _, f := range info.Fields {
			fields = append(fields, f.Name+":"+f.Type)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Size, strings.Join(fields, " "))
	}
	return tw.Flush()
}

// outputLayoutTable prints every field of one schema with its byte range.
// Nested fields are listed under dotted names after their parent.
func outputLayoutTable(w io.Writer, info api.SchemaInfo) error {
	fmt.Fprintf(w, "%s (%d bytes)\n", labelColor.Sprint(info.Name), info.Size)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tTYPE\tOFFSET\tWIDTH")
	writeLayoutRows(tw, "", info.Fields)
	return tw.Flush()
}

func writeLayoutRows(w io.Writer, prefix string, fields []api.FieldInfo) {
	for _, f := range fields {
		name := prefix + f.Name
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", name, f.Type, f.Offset, f.Width)
		writeLayoutRows(w, name+".", f.Fields)
	}
}
