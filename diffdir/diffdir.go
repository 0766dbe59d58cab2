// Package diffdir compares two directories of containers file by file:
// existence on both sides, column counts, record counts, and the mean of
// one chosen variable within a relative tolerance.
package diffdir

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// Options tunes a comparison run.
type Options struct {
	// IgnoreSuffix is stripped from file base names before pairing, so a
	// reprocessing pass that appends a suffix still pairs with the
	// original.
	IgnoreSuffix string
	// Variable is the column whose per-file mean is compared.
	Variable string
	// RelTol is the allowed relative divergence of that mean.
	RelTol float64
}

// FileReport is the comparison verdict for one paired file name.
type FileReport struct {
	Name     string
	OK       bool
	Message  string // the blocking difference, empty when OK
	Advisory string // a non-blocking observation (e.g. column counts)
}

// Summary counts report verdicts.
type Summary struct {
	Files    int
	Matching int
	Differing int
}

// Compare pairs the containers of two directories by name and checks each
// pair. Reports come back sorted by name.
func Compare(leftDir, rightDir string, opts Options) ([]FileReport, *Summary, error) {
	pairs := map[string][2]string{}
	if err := collect(pairs, leftDir, 0, opts.IgnoreSuffix); err != nil {
		return nil, nil, err
	}
	if err := collect(pairs, rightDir, 1, opts.IgnoreSuffix); err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]FileReport, 0, len(names))
	summary := &Summary{Files: len(names)}
	for _, name := range names {
		pair := pairs[name]
		rep := compareFile(name, pair[0], pair[1], opts)
		if rep.OK {
			summary.Matching++
		} else {
			summary.Differing++
			logrus.Warnf("%s: %s", rep.Name, rep.Message)
		}
		reports = append(reports, rep)
	}
	return reports, summary, nil
}

func collect(pairs map[string][2]string, dir string, side int, ignoreSuffix string) error {
	names, err := ntuple.List(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		key := pairKey(name, ignoreSuffix)
		pair := pairs[key]
		pair[side] = filepath.Join(dir, name)
		pairs[key] = pair
	}
	return nil
}

// pairKey strips the ignore suffix from the base name, keeping the
// container extension.
func pairKey(name, ignoreSuffix string) string {
	if ignoreSuffix == "" {
		return name
	}
	ext := ""
	base := name
	switch {
	case strings.HasSuffix(name, ".tup.gz"):
		ext = ".tup.gz"
		base = strings.TrimSuffix(name, ext)
	case strings.HasSuffix(name, ".tup"):
		ext = ".tup"
		base = strings.TrimSuffix(name, ext)
	}
	base = strings.TrimSuffix(base, ignoreSuffix)
	return base + ext
}

func compareFile(name, left, right string, opts Options) FileReport {
	rep := FileReport{Name: name}

	if left == "" {
		rep.Message = "this file does not exist on the left"
		return rep
	}
	if right == "" {
		rep.Message = "this file does not exist on the right"
		return rep
	}

	leftStats, err := scan(left, opts.Variable)
	if err != nil {
		rep.Message = fmt.Sprintf("unable to read the left file: %v", err)
		return rep
	}
	rightStats, err := scan(right, opts.Variable)
	if err != nil {
		rep.Message = fmt.Sprintf("unable to read the right file: %v", err)
		return rep
	}

	if leftStats.columns != rightStats.columns {
		rep.Advisory = fmt.Sprintf("column counts differ, maybe one side is a skim? (%d vs %d)",
			leftStats.columns, rightStats.columns)
	}

	if leftStats.records != rightStats.records {
		rep.Message = fmt.Sprintf("record counts differ, maybe one side is filtered? (%d vs %d)",
			leftStats.records, rightStats.records)
		return rep
	}
	if leftStats.records == 0 {
		rep.Message = "there are no records in either file"
		return rep
	}

	if opts.Variable != "" {
		if !leftStats.hasVariable && !rightStats.hasVariable {
			rep.Message = fmt.Sprintf("variable %s not found on either side, maybe it was skimmed out?", opts.Variable)
			return rep
		}
		if leftStats.hasVariable != rightStats.hasVariable {
			side := "right"
			if !leftStats.hasVariable {
				side = "left"
			}
			rep.Message = fmt.Sprintf("variable %s not found on the %s side", opts.Variable, side)
			return rep
		}
		if !meansAgree(leftStats.mean, rightStats.mean, opts.RelTol) {
			rep.Message = fmt.Sprintf("mean of %s diverges (%g vs %g)", opts.Variable, leftStats.mean, rightStats.mean)
			return rep
		}
	}

	rep.OK = true
	return rep
}

type fileStats struct {
	records     int
	columns     int
	hasVariable bool
	mean        float64
}

func scan(path, variable string) (fileStats, error) {
	var st fileStats
	r, err := ntuple.Open(path)
	if err != nil {
		return st, err
	}
	defer r.Close()

	st.columns = r.Schema().Len()
	st.hasVariable = variable != "" && r.Schema().Has(variable)
	if st.hasVariable {
		if err := r.Activate(variable); err != nil {
			return st, err
		}
	} else {
		if err := r.Activate(); err != nil {
			return st, err
		}
	}

	sum := 0.0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return st, err
		}
		st.records++
		if st.hasVariable {
			v, err := rec.Float(variable)
			if err != nil {
				return st, err
			}
			sum += v
		}
	}
	if st.hasVariable && st.records > 0 {
		st.mean = sum / float64(st.records)
	}
	return st, nil
}

func meansAgree(a, b, relTol float64) bool {
	if a == b {
		return true
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b)/denom <= relTol
}
