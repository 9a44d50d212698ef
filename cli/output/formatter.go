// Package output provides output formatting for the reactbundle CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (valid: table, json, yaml)", s)
	}
}

// Formatter writes command results as a table, JSON or YAML
type Formatter struct {
	Format    Format
	NoHeaders bool
	Quiet     bool
	Writer    io.Writer
	ErrWriter io.Writer
}

// NewFormatter creates a formatter writing to stdout and stderr
func NewFormatter(format Format, noHeaders, quiet bool) *Formatter {
	return &Formatter{
		Format:    format,
		NoHeaders: noHeaders,
		Quiet:     quiet,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// IsStructured reports whether output is machine readable
func (f *Formatter) IsStructured() bool {
	return f.Format == FormatJSON || f.Format == FormatYAML
}

// Print outputs data in the configured format
func (f *Formatter) Print(data any) error {
	if f.Quiet {
		return nil
	}

	switch f.Format {
	case FormatYAML:
		return f.printYAML(data)
	default:
		// Table mode has no generic rendering for arbitrary data
		return f.printJSON(data)
	}
}

func (f *Formatter) printJSON(data any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (f *Formatter) printYAML(data any) error {
	encoder := yaml.NewEncoder(f.Writer)
	encoder.SetIndent(2)
	defer func() { _ = encoder.Close() }()
	return encoder.Encode(data)
}

// TableData represents tabular data for table output
type TableData struct {
	Headers []string
	Rows    [][]string
}

// PrintTable prints rows as a table, or as a list of objects keyed by
// lowercased header in JSON and YAML mode
func (f *Formatter) PrintTable(data TableData) error {
	if f.Quiet {
		return nil
	}

	if f.Format != FormatTable {
		rows := make([]map[string]string, len(data.Rows))
		for i, row := range data.Rows {
			rowMap := make(map[string]string, len(row))
			for j, cell := range row {
				if j < len(data.Headers) {
					rowMap[strings.ToLower(data.Headers[j])] = cell
				}
			}
			rows[i] = rowMap
		}
		return f.Print(rows)
	}

	table := tablewriter.NewWriter(f.Writer)

	if !f.NoHeaders && len(data.Headers) > 0 {
		table.SetHeader(data.Headers)
	}

	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	table.AppendBulk(data.Rows)
	table.Render()
	return nil
}

// PrintSuccess prints a success message
func (f *Formatter) PrintSuccess(message string) {
	if f.Quiet || f.IsStructured() {
		return
	}
	_, _ = fmt.Fprintln(f.Writer, message)
}

// PrintWarning prints a warning to stderr
func (f *Formatter) PrintWarning(message string) {
	if f.Quiet {
		return
	}
	_, _ = fmt.Fprintln(f.ErrWriter, "Warning:", message)
}
