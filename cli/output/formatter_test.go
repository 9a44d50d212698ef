package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestFormatter(format Format) (*Formatter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	f := NewFormatter(format, false, false)
	f.Writer = &out
	f.ErrWriter = &errOut
	return f, &out, &errOut
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

var sample = TableData{
	Headers: []string{"SOURCE", "OUTPUT"},
	Rows: [][]string{
		{"web/routes/foo/react.ts", "out/routes/foo/out.js"},
	},
}

func TestPrintTable_Table(t *testing.T) {
	f, out, _ := newTestFormatter(FormatTable)

	require.NoError(t, f.PrintTable(sample))

	assert.Contains(t, out.String(), "SOURCE")
	assert.Contains(t, out.String(), "web/routes/foo/react.ts")
}

func TestPrintTable_NoHeaders(t *testing.T) {
	f, out, _ := newTestFormatter(FormatTable)
	f.NoHeaders = true

	require.NoError(t, f.PrintTable(sample))

	assert.NotContains(t, out.String(), "SOURCE")
	assert.Contains(t, out.String(), "out/routes/foo/out.js")
}

func TestPrintTable_JSON(t *testing.T) {
	f, out, _ := newTestFormatter(FormatJSON)

	require.NoError(t, f.PrintTable(sample))

	assert.JSONEq(t, `[{"source":"web/routes/foo/react.ts","output":"out/routes/foo/out.js"}]`, out.String())
}

func TestPrintTable_YAML(t *testing.T) {
	f, out, _ := newTestFormatter(FormatYAML)

	require.NoError(t, f.PrintTable(sample))

	var rows []map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "web/routes/foo/react.ts", rows[0]["source"])
}

func TestQuiet(t *testing.T) {
	f, out, errOut := newTestFormatter(FormatTable)
	f.Quiet = true

	require.NoError(t, f.PrintTable(sample))
	require.NoError(t, f.Print(map[string]int{"a": 1}))
	f.PrintSuccess("done")
	f.PrintWarning("careful")

	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestPrintSuccess_SkippedForStructuredOutput(t *testing.T) {
	f, out, _ := newTestFormatter(FormatJSON)
	f.PrintSuccess("done")
	assert.Empty(t, out.String())

	f, out, _ = newTestFormatter(FormatTable)
	f.PrintSuccess("done")
	assert.Equal(t, "done\n", out.String())
}

func TestPrintWarning(t *testing.T) {
	f, _, errOut := newTestFormatter(FormatTable)
	f.PrintWarning("duplicate entry")
	assert.Equal(t, "Warning: duplicate entry\n", errOut.String())
}
