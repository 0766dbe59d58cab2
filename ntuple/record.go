package ntuple

import (
	"fmt"
	"strconv"
)

// Record is one logical event: an ordered tuple of named scalar values.
// Values are kept in their container text form and parsed on access, so
// records pass through tools without reformatting loss. Fields that were
// not activated on read hold the empty string.
type Record struct {
	schema *Schema
	values []string
}

// NewRecord builds a record over the given schema. The value slice is
// retained, not copied.
func NewRecord(schema *Schema, values []string) (Record, error) {
	if len(values) != schema.Len() {
		return Record{}, fmt.Errorf("ntuple: record has %d values, schema has %d columns", len(values), schema.Len())
	}
	return Record{schema: schema, values: values}, nil
}

// Schema returns the schema this record was read or built with.
func (r Record) Schema() *Schema { return r.schema }

// Has reports whether the record's schema contains the named field.
func (r Record) Has(name string) bool { return r.schema.Has(name) }

// Values returns a copy of the raw field values, in schema order.
func (r Record) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

// Raw returns the unparsed text of the named field.
func (r Record) Raw(name string) (string, error) {
	i, ok := r.schema.Lookup(name)
	if !ok {
		return "", fmt.Errorf("ntuple: no field %q", name)
	}
	return r.values[i], nil
}

// Int parses the named field as a signed integer.
func (r Record) Int(name string) (int64, error) {
	raw, err := r.Raw(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ntuple: field %q: %w", name, err)
	}
	return v, nil
}

// Uint parses the named field as an unsigned integer.
func (r Record) Uint(name string) (uint64, error) {
	raw, err := r.Raw(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ntuple: field %q: %w", name, err)
	}
	return v, nil
}

// Float parses the named field as a float.
func (r Record) Float(name string) (float64, error) {
	raw, err := r.Raw(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ntuple: field %q: %w", name, err)
	}
	return v, nil
}

// Bool parses the named field as a boolean (0/1/true/false).
func (r Record) Bool(name string) (bool, error) {
	raw, err := r.Raw(name)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("ntuple: field %q: %w", name, err)
	}
	return v, nil
}

// FormatFloat renders a float the way containers store it.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatUint renders an unsigned integer the way containers store it.
func FormatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// FormatBool renders a boolean as 0/1, matching flag columns.
func FormatBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
