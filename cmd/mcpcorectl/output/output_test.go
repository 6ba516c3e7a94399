package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHumanFormatSuccess(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	result := &Result{
		Success: true,
		Method:  "call_tool",
		Target:  "echo",
		Data:    map[string]any{"content_blocks": 1},
	}

	h := &HumanFormatter{}
	require.NoError(t, h.Format(&buf, result))

	out := buf.String()
	require.Contains(t, out, "[OK]")
	require.Contains(t, out, "echo")
}

func TestHumanFormatError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	result := &Result{
		Success: false,
		Method:  "call_tool",
		Target:  "echo",
		Error:   "no tool registered under this name",
	}

	h := &HumanFormatter{}
	require.NoError(t, h.Format(&buf, result))

	out := buf.String()
	require.Contains(t, out, "[Error]")
	require.Contains(t, out, "no tool registered under this name")
}

func TestJSONFormatMergesDataFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	result := &Result{
		Success: true,
		Method:  "list_tools",
		Data:    map[string]any{"count": float64(2)},
	}

	f := &JSONFormatter{}
	require.NoError(t, f.Format(&buf, result))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, true, decoded["success"])
	require.Equal(t, float64(2), decoded["count"])
}

func TestCSVFormatMultipleProducesSortedColumns(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	results := []*Result{
		{Success: true, Method: "call_tool", Target: "a", Data: map[string]any{"zeta": 1, "alpha": 2}},
		{Success: false, Method: "call_tool", Target: "b", Error: "boom"},
	}

	f := &CSVFormatter{}
	require.NoError(t, f.FormatMultiple(&buf, results))

	lines := splitLines(buf.String())
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "alpha")
	require.Contains(t, lines[0], "zeta")
}

func TestGetFormatterFallsBackToHuman(t *testing.T) {
	t.Parallel()
	require.IsType(t, &HumanFormatter{}, GetFormatter("unknown"))
	require.IsType(t, &JSONFormatter{}, GetFormatter("json"))
	require.IsType(t, &CSVFormatter{}, GetFormatter("csv"))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
