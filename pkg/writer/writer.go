package writer

import (
	"encoding/json"
	"io"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/generator"
	"gopkg.in/yaml.v3"
)

// Format names a record serialization.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Writer abstracts how generated records are serialized.
type Writer interface {
	// WriteRecords serializes records to w
	WriteRecords(w io.Writer, records []generator.Record) error

	// Extension is the file extension used for this format, with the dot
	Extension() string
}

// New returns the Writer for format.
func New(format Format) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return jsonWriter{}, nil
	case FormatJSONL:
		return jsonlWriter{}, nil
	case FormatYAML:
		return yamlWriter{}, nil
	case FormatTable:
		return tableWriter{}, nil
	}
	return nil, errors.WithHint(
		errors.Newf("unknown output format %q", format),
		"use one of json, jsonl, yaml or table",
	)
}

type jsonWriter struct{}

func (jsonWriter) WriteRecords(w io.Writer, records []generator.Record) error {
	if records == nil {
		records = []generator.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func (jsonWriter) Extension() string { return ".json" }

// jsonlWriter writes one record per line.
type jsonlWriter struct{}

func (jsonlWriter) WriteRecords(w io.Writer, records []generator.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return errors.Wrapf(err, "failed to encode record %d", r.Index)
		}
	}
	return nil
}

func (jsonlWriter) Extension() string { return ".jsonl" }

type yamlWriter struct{}

func (yamlWriter) WriteRecords(w io.Writer, records []generator.Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return errors.Wrap(err, "failed to encode records")
	}
	return enc.Close()
}

func (yamlWriter) Extension() string { return ".yaml" }
