package writer

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grovetools/promptgen/pkg/generator"
	"github.com/pterm/pterm"
)

// tableWriter renders records for a terminal.
type tableWriter struct{}

func (tableWriter) WriteRecords(w io.Writer, records []generator.Record) error {
	data := pterm.TableData{{"#", "Seed", "Prompt", "Variations"}}
	for _, r := range records {
		data = append(data, []string{
			strconv.Itoa(r.Index),
			strconv.FormatInt(r.Seed, 10),
			r.Prompt,
			formatVariations(r.Variations),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}

func (tableWriter) Extension() string { return ".txt" }

func formatVariations(v map[string]string) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + v[k]
	}
	return strings.Join(parts, " ")
}
