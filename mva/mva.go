// Package mva scores containers with multivariate discriminants described
// by YAML model files. A model is a black box from the toolchain's point
// of view: it maps a record's variables to one score column.
package mva

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// ModelSpec names a model's input variables and its weight file.
type ModelSpec struct {
	Variables []string `yaml:"variables"`
	Weights   string   `yaml:"weights"`
}

// Descriptor maps model names to their specs.
type Descriptor map[string]ModelSpec

// Weights is a linear discriminant's parameter file.
type Weights struct {
	Bias         float64            `yaml:"bias"`
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// Model is a compiled, scoreable discriminant.
type Model struct {
	Name      string
	Variables []string
	bias      float64
	coeffs    map[string]float64
}

// LoadModels reads a descriptor and books every model it names.
// Relative weight paths resolve against weightDir, absolute paths stand.
func LoadModels(descPath, weightDir string) ([]Model, error) {
	data, err := os.ReadFile(descPath)
	if err != nil {
		return nil, err
	}
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("mva: parse %s: %w", descPath, err)
	}
	if len(desc) == 0 {
		return nil, fmt.Errorf("mva: %s declares no models", descPath)
	}

	names := make([]string, 0, len(desc))
	for name := range desc {
		names = append(names, name)
	}
	sort.Strings(names)

	models := make([]Model, 0, len(names))
	for _, name := range names {
		spec := desc[name]
		if len(spec.Variables) == 0 {
			return nil, fmt.Errorf("mva: model %s declares no variables", name)
		}
		wpath := spec.Weights
		if !filepath.IsAbs(wpath) {
			wpath = filepath.Join(weightDir, wpath)
		}
		wdata, err := os.ReadFile(wpath)
		if err != nil {
			return nil, fmt.Errorf("mva: model %s: %w", name, err)
		}
		var w Weights
		if err := yaml.Unmarshal(wdata, &w); err != nil {
			return nil, fmt.Errorf("mva: model %s weights %s: %w", name, wpath, err)
		}
		for _, v := range spec.Variables {
			if _, ok := w.Coefficients[v]; !ok {
				return nil, fmt.Errorf("mva: model %s has no coefficient for variable %s", name, v)
			}
		}
		logrus.Infof("Booked MVA %s with %d variables", name, len(spec.Variables))
		models = append(models, Model{
			Name:      name,
			Variables: spec.Variables,
			bias:      w.Bias,
			coeffs:    w.Coefficients,
		})
	}
	return models, nil
}

// Score evaluates the model on one record.
func (m Model) Score(rec ntuple.Record) (float64, error) {
	score := m.bias
	for _, v := range m.Variables {
		x, err := rec.Float(v)
		if err != nil {
			return 0, fmt.Errorf("mva: model %s: %w", m.Name, err)
		}
		score += m.coeffs[v] * x
	}
	return score, nil
}

// ApplyFile scores every record of a container with every model, writing
// one float column per model in input order. Output record count equals
// input record count.
func ApplyFile(models []Model, inPath, outPath string) (int, error) {
	// Union of all model variables, for selective activation.
	varSet := map[string]struct{}{}
	for _, m := range models {
		for _, v := range m.Variables {
			varSet[v] = struct{}{}
		}
	}
	active := make([]string, 0, len(varSet))
	for v := range varSet {
		active = append(active, v)
	}

	r, err := ntuple.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	if err := r.Activate(active...); err != nil {
		return 0, err
	}

	cols := make([]ntuple.Column, len(models))
	for i, m := range models {
		cols[i] = ntuple.Column{Name: m.Name, Type: ntuple.TypeFloat64}
	}
	schema, err := ntuple.NewSchema(cols...)
	if err != nil {
		return 0, err
	}

	w, err := ntuple.Create(outPath, schema)
	if err != nil {
		return 0, err
	}

	row := make([]string, len(models))
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Discard()
			return 0, err
		}
		for i, m := range models {
			score, err := m.Score(rec)
			if err != nil {
				w.Discard()
				return 0, err
			}
			row[i] = ntuple.FormatFloat(score)
		}
		if err := w.AppendRow(row); err != nil {
			w.Discard()
			return 0, err
		}
	}

	if err := w.Commit(); err != nil {
		return 0, err
	}
	return w.Count(), nil
}
