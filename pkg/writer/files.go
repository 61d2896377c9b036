package writer

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/grovetools/promptgen/pkg/errors"
	"github.com/grovetools/promptgen/pkg/generator"
)

// DirWriter writes record files into an output directory.
type DirWriter struct {
	dir    string
	writer Writer
}

// NewDir creates a DirWriter for the given output directory.
func NewDir(dir string, w Writer) *DirWriter {
	return &DirWriter{dir: dir, writer: w}
}

// Dir returns the target directory
func (d *DirWriter) Dir() string {
	return d.dir
}

// Write writes records to {dir}/{name}{ext} and returns the path written.
func (d *DirWriter) Write(name string, records []generator.Record) (string, error) {
	var buf bytes.Buffer
	if err := d.writer.WriteRecords(&buf, records); err != nil {
		return "", errors.Wrap(err, "failed to serialize records")
	}
	path := filepath.Join(d.dir, name+d.writer.Extension())
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
