// Package selection applies named cut expressions to containers, with an
// optional common prefilter whose output feeds every cut.
package selection

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// Cut is one named selection.
type Cut struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// Descriptor is the YAML selection description.
type Descriptor struct {
	Prefilter string `yaml:"prefilter"`
	Cuts      []Cut  `yaml:"cuts"`
}

// Load reads a selection descriptor from a YAML file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("selection: parse %s: %w", path, err)
	}
	if d.Prefilter == "" && len(d.Cuts) == 0 {
		return nil, fmt.Errorf("selection: %s declares neither prefilter nor cuts", path)
	}
	return &d, nil
}

// Selector holds the compiled cuts of one descriptor.
type Selector struct {
	prefilter Expr
	cuts      []compiledCut
}

type compiledCut struct {
	name string
	expr Expr
}

// Compile parses every expression in the descriptor.
func Compile(desc *Descriptor) (*Selector, error) {
	s := &Selector{}
	if desc.Prefilter != "" {
		e, err := Parse(desc.Prefilter)
		if err != nil {
			return nil, fmt.Errorf("selection: prefilter: %w", err)
		}
		s.prefilter = e
	}
	for _, c := range desc.Cuts {
		if c.Name == "" {
			return nil, fmt.Errorf("selection: cut with empty name")
		}
		e, err := Parse(c.Expression)
		if err != nil {
			return nil, fmt.Errorf("selection: cut %s: %w", c.Name, err)
		}
		s.cuts = append(s.cuts, compiledCut{name: c.Name, expr: e})
	}
	return s, nil
}

// CutNames returns the cut names in descriptor order.
func (s *Selector) CutNames() []string {
	names := make([]string, len(s.cuts))
	for i, c := range s.cuts {
		names[i] = c.name
	}
	return names
}

// SelectFile applies the prefilter and every cut to one container.
// Prefiltered records are written to outputDir/Prefilter/<name> (when a
// prefilter is declared) and each cut's survivors to
// outputDir/<cutName>/<name>. Returned counts are keyed by output set.
func (s *Selector) SelectFile(inPath, outputDir string) (map[string]int, error) {
	name := filepath.Base(inPath)

	records, schema, err := ntuple.ReadAll(inPath)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Started with %d events in %s", len(records), name)

	counts := make(map[string]int)

	if s.prefilter != nil {
		records, err = filterRecords(records, s.prefilter)
		if err != nil {
			return nil, fmt.Errorf("selection: prefilter on %s: %w", name, err)
		}
		logrus.Debugf("Filtered down to %d events with the prefilter", len(records))
		counts["Prefilter"] = len(records)
		if err := writeSubset(filepath.Join(outputDir, "Prefilter", name), schema, records); err != nil {
			return nil, err
		}
	}

	for _, cut := range s.cuts {
		selected, err := filterRecords(records, cut.expr)
		if err != nil {
			return nil, fmt.Errorf("selection: cut %s on %s: %w", cut.name, name, err)
		}
		logrus.Debugf("Got %d events for selection %s", len(selected), cut.name)
		counts[cut.name] = len(selected)
		if err := writeSubset(filepath.Join(outputDir, cut.name, name), schema, selected); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func filterRecords(records []ntuple.Record, expr Expr) ([]ntuple.Record, error) {
	var out []ntuple.Record
	for _, rec := range records {
		ok, err := expr.Eval(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func writeSubset(path string, schema *ntuple.Schema, records []ntuple.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	w, err := ntuple.Create(path, schema)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.AppendRow(rec.Values()); err != nil {
			w.Discard()
			return err
		}
	}
	return w.Commit()
}
