package writer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleRecords() []generator.Record {
	return []generator.Record{
		{
			Index:          0,
			Prompt:         "portrait, smiling, red hair",
			NegativePrompt: "lowres",
			Seed:           42,
			Variations:     map[string]string{"Hair": "red hair", "Expression": "smiling"},
			Parameters:     map[string]interface{}{"steps": 30},
		},
		{
			Index:      1,
			Prompt:     "portrait, frowning, blue hair",
			Seed:       43,
			Variations: map[string]string{"Hair": "blue hair", "Expression": "frowning"},
			Parameters: map[string]interface{}{"steps": 30},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format Format
		ext    string
	}{
		{FormatJSON, ".json"},
		{"", ".json"},
		{FormatJSONL, ".jsonl"},
		{FormatYAML, ".yaml"},
		{FormatTable, ".txt"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			w, err := New(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, w.Extension())
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"xml"`)
	assert.Contains(t, errors.FlattenHints(err), "jsonl")
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jsonWriter{}.WriteRecords(&buf, sampleRecords()))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "portrait, smiling, red hair", got[0]["prompt"])
	assert.Equal(t, "lowres", got[0]["negativePrompt"])
	assert.EqualValues(t, 43, got[1]["seed"])
}

func TestJSONWriter_NilRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jsonWriter{}.WriteRecords(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jsonlWriter{}.WriteRecords(&buf, sampleRecords()))

	scanner := bufio.NewScanner(&buf)
	var lines []generator.Record
	for scanner.Scan() {
		var r generator.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		lines = append(lines, r)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[1].Index)
	assert.Equal(t, "blue hair", lines[1].Variations["Hair"])
}

func TestYAMLWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, yamlWriter{}.WriteRecords(&buf, sampleRecords()))

	var got []generator.Record
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, int64(42), got[0].Seed)
	assert.Equal(t, "smiling", got[0].Variations["Expression"])
}

func TestTableWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tableWriter{}.WriteRecords(&buf, sampleRecords()))

	out := buf.String()
	for _, want := range []string{"Seed", "Prompt", "Variations", "portrait, frowning, blue hair", "43"} {
		assert.Contains(t, out, want)
	}
}

func TestFormatVariations(t *testing.T) {
	got := formatVariations(map[string]string{"b": "two", "a": "one"})
	assert.Equal(t, "a=one b=two", got)
	assert.Empty(t, formatVariations(nil))
}

func TestDirWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	w, err := New(FormatJSONL)
	require.NoError(t, err)

	d := NewDir(dir, w)
	assert.Equal(t, dir, d.Dir())

	path, err := d.Write("portrait", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "portrait.jsonl"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}
