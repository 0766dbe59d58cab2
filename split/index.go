package split

import (
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// Entry counts how often a key occurred in each reference subset. A
// well-formed entry has exactly one occurrence in exactly one category;
// anything else is an upstream anomaly that the index records (never
// raises) so that a single bad event cannot block indexing the rest.
type Entry struct {
	Train uint32
	Test  uint32
}

// Matches returns the total number of occurrences across both subsets.
func (e Entry) Matches() int { return int(e.Train) + int(e.Test) }

// PartitionEntry is the category view of a well-formed entry.
// IsTrain XOR IsTest holds for every found key; both false means the key
// was not found.
type PartitionEntry struct {
	IsTrain bool
	IsTest  bool
}

// Index maps every EventKey of a dataset's Train/Test reference subsets
// to its assigned category. It is a derived, disposable cache of the
// generator's decision: built fresh per dataset being propagated by
// scanning the two materialized subsets, never persisted.
type Index struct {
	entries map[EventKey]Entry
	dups    int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[EventKey]Entry)}
}

// AddTrain records one occurrence of key in the Train subset.
func (ix *Index) AddTrain(key EventKey) {
	e := ix.entries[key]
	if e.Matches() > 0 {
		ix.dups++
		logrus.Warnf("Key %v seen %d times while indexing", key, e.Matches()+1)
	}
	e.Train++
	ix.entries[key] = e
}

// AddTest records one occurrence of key in the Test subset.
func (ix *Index) AddTest(key EventKey) {
	e := ix.entries[key]
	if e.Matches() > 0 {
		ix.dups++
		logrus.Warnf("Key %v seen %d times while indexing", key, e.Matches()+1)
	}
	e.Test++
	ix.entries[key] = e
}

// Lookup returns the occurrence counts for a key. Average O(1).
func (ix *Index) Lookup(key EventKey) (Entry, bool) {
	e, ok := ix.entries[key]
	return e, ok
}

// Get returns the category view of a key, or found=false if the key is
// absent or its entry is anomalous.
func (ix *Index) Get(key EventKey) (PartitionEntry, bool) {
	e, ok := ix.entries[key]
	if !ok || e.Matches() != 1 {
		return PartitionEntry{}, false
	}
	return PartitionEntry{IsTrain: e.Train == 1, IsTest: e.Test == 1}, true
}

// Len returns the number of distinct keys indexed.
func (ix *Index) Len() int { return len(ix.entries) }

// Duplicates returns how many duplicate occurrences were recorded during
// construction.
func (ix *Index) Duplicates() int { return ix.dups }

// BuildIndex scans the Train subset, then the Test subset, of one dataset
// and indexes every record's key. Only the identity fields are activated
// on read. A missing reference file surfaces as ReferenceMissingError;
// duplicate keys are recorded, not raised.
func BuildIndex(name, trainPath, testPath string, fields KeyFields) (*Index, error) {
	ix := NewIndex()
	if err := indexSubset(ix, trainPath, fields, (*Index).AddTrain); err != nil {
		return nil, wrapReferenceErr(name, trainPath, err)
	}
	if err := indexSubset(ix, testPath, fields, (*Index).AddTest); err != nil {
		return nil, wrapReferenceErr(name, testPath, err)
	}
	return ix, nil
}

func wrapReferenceErr(name, path string, err error) error {
	if os.IsNotExist(err) {
		return &ReferenceMissingError{Name: name, Path: path}
	}
	return err
}

func indexSubset(ix *Index, path string, fields KeyFields, add func(*Index, EventKey)) error {
	r, err := ntuple.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, n := range fields.Names() {
		if !r.Schema().Has(n) {
			return &MissingFieldError{Field: n, Err: errors.New("no such column")}
		}
	}
	if err := r.Activate(fields.Names()...); err != nil {
		return err
	}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		key, err := ExtractKey(rec, fields)
		if err != nil {
			return err
		}
		add(ix, key)
	}
}
