package ntuple

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Writer appends records to a container under construction. All output
// goes to a uniquely named temporary file next to the target path; the
// container becomes visible only when Commit renames it into place, so a
// failed or discarded write never leaves a partial file behind.
type Writer struct {
	path      string
	tmp       string
	f         *os.File
	gz        *gzip.Writer
	csv       *csv.Writer
	schema    *Schema
	count     int
	committed bool
	discarded bool
}

// Create starts a new container with the given fixed schema.
func Create(path string, schema *Schema) (*Writer, error) {
	tmp := path + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}
	w := &Writer{path: path, tmp: tmp, f: f, schema: schema}
	var dst io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		w.gz = gzip.NewWriter(f)
		dst = w.gz
	}
	w.csv = csv.NewWriter(dst)
	if err := w.csv.Write(schema.headerRow()); err != nil {
		w.Discard()
		return nil, fmt.Errorf("ntuple: write header of %s: %w", path, err)
	}
	return w, nil
}

// Schema returns the declared output schema.
func (w *Writer) Schema() *Schema { return w.schema }

// Count returns the number of records appended so far.
func (w *Writer) Count() int { return w.count }

// AppendRow appends one record given as raw values in schema order.
func (w *Writer) AppendRow(values []string) error {
	if len(values) != w.schema.Len() {
		return fmt.Errorf("ntuple: row has %d values, schema has %d columns", len(values), w.schema.Len())
	}
	if err := w.csv.Write(values); err != nil {
		return fmt.Errorf("ntuple: append to %s: %w", w.path, err)
	}
	w.count++
	return nil
}

// Append appends a record, matching the writer's columns against the
// record's fields by name.
func (w *Writer) Append(rec Record) error {
	values := make([]string, w.schema.Len())
	for i, col := range w.schema.cols {
		raw, err := rec.Raw(col.Name)
		if err != nil {
			return fmt.Errorf("ntuple: append to %s: %w", w.path, err)
		}
		values[i] = raw
	}
	return w.AppendRow(values)
}

// Commit flushes everything and atomically publishes the container.
func (w *Writer) Commit() error {
	if w.committed || w.discarded {
		return fmt.Errorf("ntuple: writer for %s already finished", w.path)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.Discard()
		return fmt.Errorf("ntuple: flush %s: %w", w.path, err)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			w.Discard()
			return fmt.Errorf("ntuple: flush %s: %w", w.path, err)
		}
	}
	if err := w.f.Sync(); err != nil {
		w.Discard()
		return fmt.Errorf("ntuple: sync %s: %w", w.path, err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("ntuple: close %s: %w", w.path, err)
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		os.Remove(w.tmp)
		return err
	}
	w.committed = true
	return nil
}

// Discard abandons the container, removing the temporary file. Calling
// Discard after Commit is a no-op.
func (w *Writer) Discard() error {
	if w.committed || w.discarded {
		return nil
	}
	w.discarded = true
	w.f.Close()
	return os.Remove(w.tmp)
}
