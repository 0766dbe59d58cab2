package split

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// Applier reproduces an existing train/test partition onto a derivative
// container by key lookup, never by re-sampling. Each file is an atomic
// unit: its output is either fully written or not visible at all.
type Applier struct {
	Fields KeyFields
}

// outputSchema builds the split container schema: the identity columns,
// carried over with their input types, plus the two category flags.
func (a Applier) outputSchema(in *ntuple.Schema) (*ntuple.Schema, error) {
	cols := make([]ntuple.Column, 0, 5)
	for _, name := range a.Fields.Names() {
		i, ok := in.Lookup(name)
		if !ok {
			return nil, &MissingFieldError{Field: name, Err: errors.New("no such column")}
		}
		cols = append(cols, in.Column(i))
	}
	cols = append(cols,
		ntuple.Column{Name: "isTrain", Type: ntuple.TypeBool},
		ntuple.Column{Name: "isTest", Type: ntuple.TypeBool},
	)
	return ntuple.NewSchema(cols...)
}

// ApplyFile propagates the partition recorded in (trainPath, testPath)
// onto the container at inputPath, writing the flag container to outPath.
//
// Per-record classification by number of index matches:
//
//	0  emit with both flags false (filtered out upstream; counted)
//	1  emit with the matched category's flags
//	2  the references were already split once; discard the whole file
//	>2 identity fields are not unique; fatal for the whole run
//
// Output order and record count mirror the input exactly, except that the
// discard case publishes nothing.
func (a Applier) ApplyFile(name, inputPath, trainPath, testPath, outPath string) FileResult {
	res := FileResult{Name: name}

	ix, err := BuildIndex(name, trainPath, testPath, a.Fields)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	if ix.Len() == 0 {
		res.Outcome = OutcomeSkipped
		res.Err = &EmptyReferenceError{Name: name}
		return res
	}
	if d := ix.Duplicates(); d > 0 {
		logrus.Warnf("References for %s contain %d duplicate key occurrences", name, d)
	}

	r, err := ntuple.Open(inputPath)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	defer r.Close()

	schema, err := a.outputSchema(r.Schema())
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	if err := r.Activate(a.Fields.Names()...); err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}

	w, err := ntuple.Create(outPath, schema)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}

	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Discard()
			res.Outcome = OutcomeSkipped
			res.Err = err
			return res
		}
		res.Records++

		key, err := ExtractKey(rec, a.Fields)
		if err != nil {
			w.Discard()
			res.Outcome = OutcomeSkipped
			res.Err = err
			return res
		}

		entry, _ := ix.Lookup(key)
		isTrain, isTest := false, false
		switch m := entry.Matches(); {
		case m == 0:
			res.Unmatched++
		case m == 1:
			isTrain = entry.Train == 1
			isTest = entry.Test == 1
		case m == 2:
			w.Discard()
			res.Outcome = OutcomeDiscarded
			res.Err = &ConflictingAssignmentError{Name: name, Key: key}
			return res
		default:
			w.Discard()
			res.Outcome = OutcomeFatal
			res.Err = &IdentityIntegrityError{Name: name, Key: key, Matches: m}
			return res
		}

		if isTrain {
			res.Train++
		} else if isTest {
			res.Test++
		}

		row := make([]string, 0, schema.Len())
		for _, fieldName := range a.Fields.Names() {
			raw, err := rec.Raw(fieldName)
			if err != nil {
				w.Discard()
				res.Outcome = OutcomeSkipped
				res.Err = err
				return res
			}
			row = append(row, raw)
		}
		row = append(row, ntuple.FormatBool(isTrain), ntuple.FormatBool(isTest))
		if err := w.AppendRow(row); err != nil {
			w.Discard()
			res.Outcome = OutcomeSkipped
			res.Err = err
			return res
		}
	}

	if err := w.Commit(); err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	res.Outcome = OutcomeWritten
	return res
}
