// Package ntuple implements flat record containers: named, ordered
// collections of scalar-field records persisted as gzip-compressed CSV.
// Readers support selective field activation so that wide schemas only
// pay for the columns a tool actually needs; writers declare a fixed
// output schema up front and publish atomically on commit.
package ntuple

import (
	"fmt"
	"strings"
)

// FieldType is the semantic type of a column, using ROOT-style leaf codes.
type FieldType byte

const (
	TypeInt32   FieldType = 'I'
	TypeUint32  FieldType = 'i'
	TypeInt64   FieldType = 'L'
	TypeUint64  FieldType = 'l'
	TypeFloat32 FieldType = 'F'
	TypeFloat64 FieldType = 'D'
	TypeBool    FieldType = 'O'
)

func (t FieldType) valid() bool {
	switch t {
	case TypeInt32, TypeUint32, TypeInt64, TypeUint64, TypeFloat32, TypeFloat64, TypeBool:
		return true
	}
	return false
}

// Column describes one named field of a container.
type Column struct {
	Name string
	Type FieldType
}

// Schema is an ordered set of columns with O(1) name lookup.
type Schema struct {
	cols []Column
	pos  map[string]int
}

// NewSchema builds a schema from the given columns, in order.
func NewSchema(cols ...Column) (*Schema, error) {
	s := &Schema{
		cols: make([]Column, 0, len(cols)),
		pos:  make(map[string]int, len(cols)),
	}
	for _, c := range cols {
		if err := s.add(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) add(c Column) error {
	if c.Name == "" {
		return fmt.Errorf("ntuple: column with empty name")
	}
	if strings.ContainsRune(c.Name, '/') {
		return fmt.Errorf("ntuple: column name %q contains '/'", c.Name)
	}
	if !c.Type.valid() {
		return fmt.Errorf("ntuple: column %q has unknown type code %q", c.Name, string(c.Type))
	}
	if _, dup := s.pos[c.Name]; dup {
		return fmt.Errorf("ntuple: duplicate column %q", c.Name)
	}
	s.pos[c.Name] = len(s.cols)
	s.cols = append(s.cols, c)
	return nil
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Columns returns a copy of the column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Column returns the column at position i.
func (s *Schema) Column(i int) Column { return s.cols[i] }

// Lookup returns the position of the named column.
func (s *Schema) Lookup(name string) (int, bool) {
	i, ok := s.pos[name]
	return i, ok
}

// Has reports whether the schema contains the named column.
func (s *Schema) Has(name string) bool {
	_, ok := s.pos[name]
	return ok
}

// Extend returns a new schema with the given columns appended.
func (s *Schema) Extend(cols ...Column) (*Schema, error) {
	return NewSchema(append(s.Columns(), cols...)...)
}

// headerRow encodes the schema as CSV header cells of the form Name/Code.
func (s *Schema) headerRow() []string {
	row := make([]string, len(s.cols))
	for i, c := range s.cols {
		row[i] = c.Name + "/" + string(c.Type)
	}
	return row
}

// parseHeader decodes a CSV header row into a schema.
func parseHeader(row []string) (*Schema, error) {
	cols := make([]Column, 0, len(row))
	for _, cell := range row {
		slash := strings.LastIndexByte(cell, '/')
		if slash <= 0 || slash != len(cell)-2 {
			return nil, fmt.Errorf("ntuple: malformed header cell %q", cell)
		}
		cols = append(cols, Column{Name: cell[:slash], Type: FieldType(cell[slash+1])})
	}
	return NewSchema(cols...)
}
