package split

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

func TestIsDataSample(t *testing.T) {
	assert.True(t, IsDataSample("Data_MET"+ntuple.Ext))
	assert.True(t, IsDataSample("puWeights.TTbar"+ntuple.Ext))
	assert.False(t, IsDataSample("TTbar"+ntuple.Ext))
	assert.False(t, IsDataSample("WJets_Data"+ntuple.Ext))
}

func seededBank(seed int64) *SeedBank {
	return NewSeedBank(seed, true, SeedModePerFile)
}

func TestSplitBatch(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(inDir, 0o755))

	keys := make([]EventKey, 10)
	for i := range keys {
		keys[i] = EventKey{Run: 1, Segment: 1, Event: uint64(i + 1)}
	}
	writeKeyed(t, filepath.Join(inDir, "TTbar"+ntuple.Ext), keys)
	writeKeyed(t, filepath.Join(inDir, "Data_MET"+ntuple.Ext), keys)

	results, err := SplitBatch(GenerateConfig{
		InputDir:    inDir,
		OutputDir:   outDir,
		TrainFactor: 3,
		TestFactor:  1,
		Seeds:       seededBank(42),
	})
	require.NoError(t, err)

	// The data sample is never split, so only the simulated one reports.
	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, "TTbar"+ntuple.Ext, res.Name)
	assert.Equal(t, OutcomeWritten, res.Outcome)
	assert.Equal(t, 10, res.Records)
	assert.Equal(t, 7, res.Train)
	assert.Equal(t, 3, res.Test)

	trainRecs, trainSchema, err := ntuple.ReadAll(filepath.Join(outDir, "Train", "TTbar"+ntuple.Ext))
	require.NoError(t, err)
	assert.Len(t, trainRecs, 7)
	assert.True(t, trainSchema.Has(SplitFactorColumn))

	testRecs, _, err := ntuple.ReadAll(filepath.Join(outDir, "Test", "TTbar"+ntuple.Ext))
	require.NoError(t, err)
	assert.Len(t, testRecs, 3)

	_, err = os.Stat(filepath.Join(outDir, "Train", "Data_MET"+ntuple.Ext))
	assert.True(t, os.IsNotExist(err))
}

func TestSplitBatch_Deterministic(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(inDir, 0o755))

	keys := make([]EventKey, 20)
	for i := range keys {
		keys[i] = EventKey{Run: 1, Segment: 1, Event: uint64(i + 1)}
	}
	writeKeyed(t, filepath.Join(inDir, "TTbar"+ntuple.Ext), keys)

	run := func(outDir string) []EventKey {
		_, err := SplitBatch(GenerateConfig{
			InputDir:    inDir,
			OutputDir:   outDir,
			TrainFactor: 1,
			TestFactor:  1,
			Seeds:       seededBank(7),
		})
		require.NoError(t, err)
		recs, _, err := ntuple.ReadAll(filepath.Join(outDir, "Train", "TTbar"+ntuple.Ext))
		require.NoError(t, err)
		out := make([]EventKey, len(recs))
		for i, rec := range recs {
			k, err := ExtractKey(rec, DefaultKeyFields())
			require.NoError(t, err)
			out[i] = k
		}
		return out
	}

	first := run(filepath.Join(dir, "out1"))
	second := run(filepath.Join(dir, "out2"))
	assert.Equal(t, first, second)
}

// splitThenApply runs the generator on one input and propagates its own
// partition back onto the same input.
func TestApplyBatch_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	splitDir := filepath.Join(dir, "split")
	outDir := filepath.Join(dir, "flags")
	require.NoError(t, os.MkdirAll(inDir, 0o755))

	keys := make([]EventKey, 12)
	for i := range keys {
		keys[i] = EventKey{Run: 2, Segment: 3, Event: uint64(100 + i)}
	}
	writeKeyed(t, filepath.Join(inDir, "TTbar"+ntuple.Ext), keys)
	writeKeyed(t, filepath.Join(inDir, "WJets"+ntuple.Ext), keys)

	_, err := SplitBatch(GenerateConfig{
		InputDir:    inDir,
		OutputDir:   splitDir,
		TrainFactor: 2,
		TestFactor:  1,
		Seeds:       seededBank(42),
	})
	require.NoError(t, err)

	results, err := ApplyBatch(context.Background(), ApplyConfig{
		InputDir:  inDir,
		TrainDir:  filepath.Join(splitDir, "Train"),
		TestDir:   filepath.Join(splitDir, "Test"),
		OutputDir: outDir,
		Fields:    DefaultKeyFields(),
		Workers:   4,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		assert.Equal(t, OutcomeWritten, res.Outcome, res.Name)
		assert.Equal(t, 12, res.Records, res.Name)
		assert.Equal(t, 8, res.Train, res.Name)
		assert.Equal(t, 4, res.Test, res.Name)
		assert.Zero(t, res.Unmatched, res.Name)
	}

	// Every input record got exactly one flag set.
	recs, _, err := ntuple.ReadAll(filepath.Join(outDir, "TTbar"+ntuple.Ext))
	require.NoError(t, err)
	require.Len(t, recs, 12)
	for _, rec := range recs {
		isTrain, err := rec.Bool("isTrain")
		require.NoError(t, err)
		isTest, err := rec.Bool("isTest")
		require.NoError(t, err)
		assert.NotEqual(t, isTrain, isTest)
	}
}

func TestApplyBatch_MissingReferencesAreIsolated(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	refDir := filepath.Join(dir, "refs")
	require.NoError(t, os.MkdirAll(inDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(refDir, "Train"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(refDir, "Test"), 0o755))

	keys := []EventKey{{1, 1, 1}, {1, 1, 2}}
	writeKeyed(t, filepath.Join(inDir, "Good"+ntuple.Ext), keys)
	writeKeyed(t, filepath.Join(inDir, "Orphan"+ntuple.Ext), keys)
	writeKeyed(t, filepath.Join(refDir, "Train", "Good"+ntuple.Ext), keys[:1])
	writeKeyed(t, filepath.Join(refDir, "Test", "Good"+ntuple.Ext), keys[1:])

	results, err := ApplyBatch(context.Background(), ApplyConfig{
		InputDir:  inDir,
		TrainDir:  filepath.Join(refDir, "Train"),
		TestDir:   filepath.Join(refDir, "Test"),
		OutputDir: filepath.Join(dir, "flags"),
		Fields:    DefaultKeyFields(),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byName := map[string]FileResult{}
	for _, res := range results {
		byName[res.Name] = res
	}
	assert.Equal(t, OutcomeWritten, byName["Good"+ntuple.Ext].Outcome)
	assert.Equal(t, OutcomeSkipped, byName["Orphan"+ntuple.Ext].Outcome)
	var missing *ReferenceMissingError
	assert.ErrorAs(t, byName["Orphan"+ntuple.Ext].Err, &missing)
}

func TestApplyBatch_IntegrityErrorAbortsRun(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	refDir := filepath.Join(dir, "refs")
	require.NoError(t, os.MkdirAll(inDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(refDir, "Train"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(refDir, "Test"), 0o755))

	key := EventKey{Run: 1, Segment: 1, Event: 1}
	writeKeyed(t, filepath.Join(inDir, "Broken"+ntuple.Ext), []EventKey{key})
	writeKeyed(t, filepath.Join(refDir, "Train", "Broken"+ntuple.Ext), []EventKey{key, key})
	writeKeyed(t, filepath.Join(refDir, "Test", "Broken"+ntuple.Ext), []EventKey{key})

	_, err := ApplyBatch(context.Background(), ApplyConfig{
		InputDir:  inDir,
		TrainDir:  filepath.Join(refDir, "Train"),
		TestDir:   filepath.Join(refDir, "Test"),
		OutputDir: filepath.Join(dir, "flags"),
		Fields:    DefaultKeyFields(),
	})
	var integrity *IdentityIntegrityError
	assert.ErrorAs(t, err, &integrity)
}
