package split

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

// SplitFactorColumn is the reweighting column appended to both outputs.
// Its value is (trainFactor+testFactor)/ownFactor, fixed per run, and
// corrects downstream statistics for the uneven category sizes.
const SplitFactorColumn = "splitFactor"

// Generator assigns every record of a container to Train or Test via
// seeded sampling at an integer ratio.
type Generator struct {
	TrainFactor int
	TestFactor  int
}

// OutputSchema extends an input schema with the reweighting column.
func OutputSchema(in *ntuple.Schema) (*ntuple.Schema, error) {
	return in.Extend(ntuple.Column{Name: SplitFactorColumn, Type: ntuple.TypeFloat32})
}

// Split partitions records between the two writers. Train membership is
// drawn from rng; every record lands in exactly one output, in input
// order, carrying its category's reweighting factor.
func (g Generator) Split(rng *rand.Rand, records []ntuple.Record, trainW, testW *ntuple.Writer) error {
	trainCount, testCount, err := Counts(len(records), g.TrainFactor, g.TestFactor)
	if err != nil {
		return err
	}
	logrus.Debugf("Splitting into %d events for training and %d events for testing", trainCount, testCount)

	inTrain := SampleIndices(rng, len(records), trainCount)

	total := float64(g.TrainFactor + g.TestFactor)
	trainWeight := ntuple.FormatFloat(total / float64(g.TrainFactor))
	testWeight := ntuple.FormatFloat(total / float64(g.TestFactor))

	for i, rec := range records {
		if _, ok := inTrain[i]; ok {
			err = trainW.AppendRow(append(rec.Values(), trainWeight))
		} else {
			err = testW.AppendRow(append(rec.Values(), testWeight))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
