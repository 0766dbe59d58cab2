// Package skim reduces containers to a declared set of branches, with
// optional renaming, sentinel reinterpretation, and seeded downsampling.
package skim

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
	"github.com/ntuplesplit/ntuplesplit/split"
)

// Sentinel is the placeholder value reinterpretation replaces.
const Sentinel = -9999.0

// BranchSpec controls one kept branch.
type BranchSpec struct {
	// Rename is the output column name; empty keeps the input name.
	Rename string `yaml:"rename"`
	// Reinterpret, when set, replaces the -9999 sentinel with this value.
	Reinterpret *float64 `yaml:"reinterpret"`
}

// Descriptor is the YAML skim description: which branches survive, how
// they are renamed, and an optional uniform downsample to Filter records.
type Descriptor struct {
	Seed     *int64                `yaml:"seed"`
	Filter   *int                  `yaml:"filter"`
	Branches map[string]BranchSpec `yaml:"branches"`
}

// Load reads a skim descriptor from a YAML file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("skim: parse %s: %w", path, err)
	}
	if len(d.Branches) == 0 {
		return nil, fmt.Errorf("skim: %s declares no branches", path)
	}
	if d.Filter != nil && *d.Filter < 0 {
		return nil, fmt.Errorf("skim: negative filter %d", *d.Filter)
	}
	return &d, nil
}

// Skimmer applies one descriptor to containers.
type Skimmer struct {
	desc *Descriptor
}

// New creates a Skimmer for the descriptor.
func New(desc *Descriptor) *Skimmer {
	return &Skimmer{desc: desc}
}

// SkimFile skims one container, returning how many records were read and
// written. Output column order follows the input schema restricted to
// the kept branches. Requested branches absent from the input are warned
// about and dropped, not fatal, so one descriptor can serve containers
// with slightly different schemas.
func (s *Skimmer) SkimFile(rng *rand.Rand, inPath, outPath string) (read, written int, err error) {
	name := filepath.Base(inPath)

	records, schema, err := ntuple.ReadAll(inPath)
	if err != nil {
		return 0, 0, err
	}
	read = len(records)

	// Kept columns, in input schema order.
	type kept struct {
		pos         int
		reinterpret *float64
		isFloat     bool
	}
	var (
		cols    []ntuple.Column
		sources []kept
	)
	for i, col := range schema.Columns() {
		spec, ok := s.desc.Branches[col.Name]
		if !ok {
			continue
		}
		outName := col.Name
		if spec.Rename != "" {
			outName = spec.Rename
		}
		isFloat := col.Type == ntuple.TypeFloat32 || col.Type == ntuple.TypeFloat64
		cols = append(cols, ntuple.Column{Name: outName, Type: col.Type})
		sources = append(sources, kept{pos: i, reinterpret: spec.Reinterpret, isFloat: isFloat})
	}
	for bname := range s.desc.Branches {
		if !schema.Has(bname) {
			logrus.Warnf("%s: requested branch %s not present, dropping it", name, bname)
		}
	}
	if len(cols) == 0 {
		return read, 0, fmt.Errorf("skim: %s has none of the requested branches", name)
	}

	outSchema, err := ntuple.NewSchema(cols...)
	if err != nil {
		return read, 0, err
	}

	var selected map[int]struct{}
	if s.desc.Filter != nil {
		logrus.Debugf("Filtering %s down to %d events", name, *s.desc.Filter)
		selected = split.SampleIndices(rng, len(records), *s.desc.Filter)
	}

	w, err := ntuple.Create(outPath, outSchema)
	if err != nil {
		return read, 0, err
	}

	for i, rec := range records {
		if selected != nil {
			if _, ok := selected[i]; !ok {
				continue
			}
		}
		vals := rec.Values()
		row := make([]string, len(sources))
		for j, src := range sources {
			raw := vals[src.pos]
			if src.reinterpret != nil && src.isFloat && isSentinel(raw) {
				raw = ntuple.FormatFloat(*src.reinterpret)
			}
			row[j] = raw
		}
		if err := w.AppendRow(row); err != nil {
			w.Discard()
			return read, 0, err
		}
	}

	if err := w.Commit(); err != nil {
		return read, 0, err
	}
	return read, w.Count(), nil
}

func isSentinel(raw string) bool {
	v, err := strconv.ParseFloat(raw, 64)
	return err == nil && v == Sentinel
}
