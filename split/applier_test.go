package split

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// writeDerivative materializes a container with identity columns plus a
// reprocessed payload column the references never had.
func writeDerivative(t *testing.T, path string, keys []EventKey) {
	t.Helper()
	s, err := ntuple.NewSchema(
		ntuple.Column{Name: "Run", Type: ntuple.TypeUint32},
		ntuple.Column{Name: "LumiSec", Type: ntuple.TypeUint32},
		ntuple.Column{Name: "Event", Type: ntuple.TypeUint64},
		ntuple.Column{Name: "bdtScore", Type: ntuple.TypeFloat64},
	)
	require.NoError(t, err)
	w, err := ntuple.Create(path, s)
	require.NoError(t, err)
	for i, k := range keys {
		require.NoError(t, w.AppendRow([]string{
			ntuple.FormatUint(k.Run), ntuple.FormatUint(k.Segment), ntuple.FormatUint(k.Event),
			ntuple.FormatFloat(float64(i) * 0.125),
		}))
	}
	require.NoError(t, w.Commit())
}

type flagRow struct {
	event   uint64
	isTrain bool
	isTest  bool
}

func readFlags(t *testing.T, path string) []flagRow {
	t.Helper()
	records, _, err := ntuple.ReadAll(path)
	require.NoError(t, err)
	rows := make([]flagRow, 0, len(records))
	for _, rec := range records {
		ev, err := rec.Uint("Event")
		require.NoError(t, err)
		isTrain, err := rec.Bool("isTrain")
		require.NoError(t, err)
		isTest, err := rec.Bool("isTest")
		require.NoError(t, err)
		rows = append(rows, flagRow{event: ev, isTrain: isTrain, isTest: isTest})
	}
	return rows
}

var (
	keyA = EventKey{Run: 1, Segment: 1, Event: 11}
	keyB = EventKey{Run: 1, Segment: 1, Event: 12}
	keyC = EventKey{Run: 1, Segment: 1, Event: 13}
	keyD = EventKey{Run: 1, Segment: 2, Event: 21}
	keyE = EventKey{Run: 1, Segment: 2, Event: 22}
	keyF = EventKey{Run: 2, Segment: 1, Event: 31}
)

// applyScenario builds references Train={A,B,C}, Test={D,E}, a derivative
// with the given keys, and runs the applier once.
func applyScenario(t *testing.T, derivative []EventKey, trainKeys, testKeys []EventKey) (FileResult, string) {
	t.Helper()
	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train"+ntuple.Ext)
	testPath := filepath.Join(dir, "test"+ntuple.Ext)
	inPath := filepath.Join(dir, "input"+ntuple.Ext)
	outPath := filepath.Join(dir, "output"+ntuple.Ext)

	writeKeyed(t, trainPath, trainKeys)
	writeKeyed(t, testPath, testKeys)
	writeDerivative(t, inPath, derivative)

	a := Applier{Fields: DefaultKeyFields()}
	return a.ApplyFile("input"+ntuple.Ext, inPath, trainPath, testPath, outPath), outPath
}

func TestApplier_FlagsFollowTheIndex(t *testing.T) {
	res, outPath := applyScenario(t,
		[]EventKey{keyA, keyD, keyF, keyB},
		[]EventKey{keyA, keyB, keyC},
		[]EventKey{keyD, keyE},
	)
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeWritten, res.Outcome)
	assert.Equal(t, 4, res.Records)
	assert.Equal(t, 2, res.Train)
	assert.Equal(t, 1, res.Test)
	assert.Equal(t, 1, res.Unmatched)

	want := []flagRow{
		{keyA.Event, true, false},
		{keyD.Event, false, true},
		{keyF.Event, false, false},
		{keyB.Event, true, false},
	}
	assert.Equal(t, want, readFlags(t, outPath), "order and count mirror the input")
}

func TestApplier_Idempotent(t *testing.T) {
	derivative := []EventKey{keyA, keyD, keyF, keyB}
	resA, outA := applyScenario(t, derivative, []EventKey{keyA, keyB, keyC}, []EventKey{keyD, keyE})
	resB, outB := applyScenario(t, derivative, []EventKey{keyA, keyB, keyC}, []EventKey{keyD, keyE})
	require.NoError(t, resA.Err)
	require.NoError(t, resB.Err)
	assert.Equal(t, readFlags(t, outA), readFlags(t, outB))
}

func TestApplier_ConflictDiscardsWholeFile(t *testing.T) {
	// keyA sits in both references: the file was never split upstream.
	res, outPath := applyScenario(t,
		[]EventKey{keyB, keyA, keyC},
		[]EventKey{keyA, keyB, keyC},
		[]EventKey{keyA},
	)
	assert.Equal(t, OutcomeDiscarded, res.Outcome)
	var conflict *ConflictingAssignmentError
	require.ErrorAs(t, res.Err, &conflict)
	assert.Equal(t, keyA, conflict.Key)

	_, err := os.Stat(outPath)
	assert.True(t, os.IsNotExist(err), "a discarded file publishes nothing, partial output is worse than none")
}

func TestApplier_IntegrityErrorIsFatal(t *testing.T) {
	// keyA appears three times across the references: the identity
	// assumption itself is broken, distinct from the two-match case.
	res, outPath := applyScenario(t,
		[]EventKey{keyA},
		[]EventKey{keyA, keyA},
		[]EventKey{keyA},
	)
	assert.Equal(t, OutcomeFatal, res.Outcome)
	var integrity *IdentityIntegrityError
	require.ErrorAs(t, res.Err, &integrity)
	assert.Equal(t, 3, integrity.Matches)

	_, err := os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestApplier_ReferenceMissingSkips(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "input"+ntuple.Ext)
	trainPath := filepath.Join(dir, "train"+ntuple.Ext)
	writeDerivative(t, inPath, []EventKey{keyA})
	writeKeyed(t, trainPath, []EventKey{keyA})

	a := Applier{Fields: DefaultKeyFields()}
	res := a.ApplyFile("input"+ntuple.Ext, inPath, trainPath,
		filepath.Join(dir, "gone"+ntuple.Ext), filepath.Join(dir, "out"+ntuple.Ext))

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	var missing *ReferenceMissingError
	assert.ErrorAs(t, res.Err, &missing)
}

func TestApplier_EmptyReferencesSkip(t *testing.T) {
	res, outPath := applyScenario(t, []EventKey{keyA}, nil, nil)
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	var empty *EmptyReferenceError
	require.ErrorAs(t, res.Err, &empty)

	_, err := os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestSummarize(t *testing.T) {
	results := []FileResult{
		{Name: "a", Outcome: OutcomeWritten, Unmatched: 2},
		{Name: "b", Outcome: OutcomeWritten},
		{Name: "c", Outcome: OutcomeSkipped},
		{Name: "d", Outcome: OutcomeDiscarded},
		{Name: "e", Outcome: OutcomeFatal},
	}
	s := Summarize(results)
	assert.Equal(t, &Summary{Files: 5, Written: 2, Skipped: 1, Discarded: 1, Fatal: 1, Unmatched: 2}, s)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, &Summary{}, Summarize(nil))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "written", OutcomeWritten.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "discarded-conflict", OutcomeDiscarded.String())
	assert.Equal(t, "fatal-integrity-error", OutcomeFatal.String())
}
