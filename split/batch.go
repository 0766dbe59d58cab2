package split

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// IsDataSample reports whether a container holds recorded data rather
// than simulated events. Data samples carry no truth information and are
// never split. Auxiliary weight containers are excluded the same way.
func IsDataSample(name string) bool {
	return strings.HasPrefix(name, "Data") || strings.HasPrefix(name, "puWeights.")
}

// GenerateConfig describes one generator batch run.
type GenerateConfig struct {
	InputDir    string
	OutputDir   string // Train/ and Test/ are created beneath it
	TrainFactor int
	TestFactor  int
	Seeds       *SeedBank
}

// SplitBatch splits every container in the input directory into Train and
// Test subsets. Files are processed sequentially so that shared-seed mode
// consumes randomness in a stable order.
func SplitBatch(cfg GenerateConfig) ([]FileResult, error) {
	names, err := ntuple.List(cfg.InputDir)
	if err != nil {
		return nil, err
	}

	trainDir := filepath.Join(cfg.OutputDir, "Train")
	testDir := filepath.Join(cfg.OutputDir, "Test")
	if err := ensureDirs(trainDir, testDir); err != nil {
		return nil, err
	}

	gen := Generator{TrainFactor: cfg.TrainFactor, TestFactor: cfg.TestFactor}

	var results []FileResult
	for _, name := range names {
		if IsDataSample(name) {
			logrus.Infof("Skipping data file %s", name)
			continue
		}
		logrus.Infof("Processing file %s", name)
		results = append(results, splitFile(gen, cfg, name, trainDir, testDir))
	}
	return results, nil
}

func splitFile(gen Generator, cfg GenerateConfig, name, trainDir, testDir string) FileResult {
	res := FileResult{Name: name}

	records, schema, err := ntuple.ReadAll(filepath.Join(cfg.InputDir, name))
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	res.Records = len(records)
	logrus.Debugf("Started with %d events in %s", len(records), name)

	outSchema, err := OutputSchema(schema)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}

	trainW, err := ntuple.Create(filepath.Join(trainDir, name), outSchema)
	if err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	testW, err := ntuple.Create(filepath.Join(testDir, name), outSchema)
	if err != nil {
		trainW.Discard()
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}

	if err := gen.Split(cfg.Seeds.ForFile(name), records, trainW, testW); err != nil {
		trainW.Discard()
		testW.Discard()
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	res.Train = trainW.Count()
	res.Test = testW.Count()

	// Publish test first so an interrupted run never leaves a train
	// subset without its sibling being retried.
	if err := testW.Commit(); err != nil {
		trainW.Discard()
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	if err := trainW.Commit(); err != nil {
		res.Outcome = OutcomeSkipped
		res.Err = err
		return res
	}
	res.Outcome = OutcomeWritten
	return res
}

// ApplyConfig describes one propagation batch run.
type ApplyConfig struct {
	InputDir  string
	TrainDir  string // reference Train subset location
	TestDir   string // reference Test subset location
	OutputDir string
	Fields    KeyFields
	Workers   int // bounded parallelism; <=0 means sequential
}

// ApplyBatch propagates the reference partition onto every container in
// the input directory. Files are independent (each gets a fresh index),
// so they run in parallel up to the worker bound. File-level failures are
// isolated; an IdentityIntegrityError cancels the remaining work and
// aborts the run.
func ApplyBatch(ctx context.Context, cfg ApplyConfig) ([]FileResult, error) {
	names, err := ntuple.List(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if err := ensureDirs(cfg.OutputDir); err != nil {
		return nil, err
	}

	applier := Applier{Fields: cfg.Fields}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]FileResult, 0, len(names))
	slots := make([]FileResult, len(names))
	taken := make([]bool, len(names))
	for i, name := range names {
		if IsDataSample(name) {
			logrus.Infof("Skipping data file %s", name)
			continue
		}
		taken[i] = true
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i] = FileResult{Name: name, Outcome: OutcomeSkipped, Err: err}
				return nil
			}
			logrus.Infof("Processing file %s", name)
			res := applier.ApplyFile(
				name,
				filepath.Join(cfg.InputDir, name),
				filepath.Join(cfg.TrainDir, name),
				filepath.Join(cfg.TestDir, name),
				filepath.Join(cfg.OutputDir, name),
			)
			logFileResult(res)
			slots[i] = res
			if res.Outcome == OutcomeFatal {
				return res.Err
			}
			return nil
		})
	}

	err = g.Wait()
	for i := range slots {
		if taken[i] {
			results = append(results, slots[i])
		}
	}
	return results, err
}

func logFileResult(res FileResult) {
	switch res.Outcome {
	case OutcomeWritten:
		if res.Unmatched > 0 {
			logrus.Warnf("%s: %d of %d events matched neither reference subset", res.Name, res.Unmatched, res.Records)
		}
	case OutcomeSkipped:
		logrus.Warnf("Skipping %s: %v", res.Name, res.Err)
	case OutcomeDiscarded:
		logrus.Warnf("The file %s was not split in the previous split, skipping it", res.Name)
	case OutcomeFatal:
		logrus.Errorf("%v", res.Err)
	}
}

func ensureDirs(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
