package ntuple

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader streams records out of a container file.
type Reader struct {
	f      *os.File
	gz     *gzip.Reader
	csv    *csv.Reader
	schema *Schema
	active []bool // nil means every field is materialized
}

// Open opens a container for reading and decodes its schema.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f}
	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ntuple: open %s: %w", path, err)
		}
		r.gz = gz
		src = gz
	}
	r.csv = csv.NewReader(src)
	r.csv.ReuseRecord = true
	header, err := r.csv.Read()
	if err != nil {
		r.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("ntuple: %s has no header", path)
		}
		return nil, fmt.Errorf("ntuple: read header of %s: %w", path, err)
	}
	schema, err := parseHeader(header)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("ntuple: %s: %w", path, err)
	}
	r.schema = schema
	return r, nil
}

// Schema returns the container's schema.
func (r *Reader) Schema() *Schema { return r.schema }

// Activate restricts materialization to the named fields. Must be called
// before the first Next. Unknown names are an error so callers learn about
// skimmed-out fields up front.
func (r *Reader) Activate(names ...string) error {
	active := make([]bool, r.schema.Len())
	for _, name := range names {
		i, ok := r.schema.Lookup(name)
		if !ok {
			return fmt.Errorf("ntuple: cannot activate unknown field %q", name)
		}
		active[i] = true
	}
	r.active = active
	return nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		return Record{}, err
	}
	vals := make([]string, len(row))
	if r.active == nil {
		copy(vals, row)
	} else {
		for i := range row {
			if r.active[i] {
				vals[i] = row[i]
			}
		}
	}
	return Record{schema: r.schema, values: vals}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.f.Close()
}

// ReadAll loads every record of a container into memory.
func ReadAll(path string) ([]Record, *Schema, error) {
	r, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	var records []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("ntuple: read %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, r.Schema(), nil
}
