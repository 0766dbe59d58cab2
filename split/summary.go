package split

// Outcome is the terminal classification of one file's processing.
type Outcome int

const (
	// OutcomeWritten means the output container was published.
	OutcomeWritten Outcome = iota
	// OutcomeSkipped means nothing was attempted for the file (missing or
	// empty references, uncomputable keys).
	OutcomeSkipped
	// OutcomeDiscarded means propagation started but the whole output was
	// thrown away because the references were already split.
	OutcomeDiscarded
	// OutcomeFatal means the dataset's identity assumption is broken and
	// the run must not continue.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDiscarded:
		return "discarded-conflict"
	case OutcomeFatal:
		return "fatal-integrity-error"
	}
	return "unknown"
}

// FileResult records the outcome of one file.
type FileResult struct {
	Name      string
	Outcome   Outcome
	Records   int // records read from the input container
	Train     int // records flagged as train
	Test      int // records flagged as test
	Unmatched int // records whose key matched neither reference subset
	Err       error
}

// Summary aggregates per-file outcomes for run-level reporting. Every
// skip and discard stays visible: partial success is never silent.
type Summary struct {
	Files     int
	Written   int
	Skipped   int
	Discarded int
	Fatal     int
	Unmatched int // total records emitted with neither flag set
}

// Summarize computes a Summary from per-file results. Safe for empty
// input (returns zero-value fields).
func Summarize(results []FileResult) *Summary {
	s := &Summary{Files: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeWritten:
			s.Written++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeDiscarded:
			s.Discarded++
		case OutcomeFatal:
			s.Fatal++
		}
		s.Unmatched += r.Unmatched
	}
	return s
}
