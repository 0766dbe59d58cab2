package cmd

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/split"
)

var (
	applyInput   string // Directory with the derivative containers
	applyTrain   string // Directory with the pre-split train subset
	applyTest    string // Directory with the pre-split test subset
	applyOutput  string // Directory receiving the flag containers
	applyWorkers int    // Parallel file workers
	runField     string // Identity column: run number
	segmentField string // Identity column: segment within the run
	eventField   string // Identity column: event number
)

// applySplitCmd reproduces an existing train/test split onto derivative
// containers via key lookup, never by re-sampling.
var applySplitCmd = &cobra.Command{
	Use:   "apply-split",
	Short: "Apply an existing train/test split to derivative containers",
	Run: func(cmd *cobra.Command, args []string) {
		mustDir(applyInput, "input")
		mustDir(applyTrain, "train")
		mustDir(applyTest, "test")
		mustDir(applyOutput, "output")

		results, err := split.ApplyBatch(context.Background(), split.ApplyConfig{
			InputDir:  applyInput,
			TrainDir:  applyTrain,
			TestDir:   applyTest,
			OutputDir: applyOutput,
			Fields: split.KeyFields{
				Run:     runField,
				Segment: segmentField,
				Event:   eventField,
			},
			Workers: applyWorkers,
		})
		logSummary(results)
		if err != nil {
			var integrity *split.IdentityIntegrityError
			if errors.As(err, &integrity) {
				logrus.Fatalf("Aborting the run, the identity fields are not unique: %v", integrity)
			}
			logrus.Fatalf("Propagation failed: %v", err)
		}
	},
}

func init() {
	defaults := split.DefaultKeyFields()

	applySplitCmd.Flags().StringVarP(&applyInput, "input", "i", "", "Directory containing the derivative containers")
	applySplitCmd.Flags().StringVar(&applyTrain, "train-path", "", "Directory containing the pre-split train containers")
	applySplitCmd.Flags().StringVar(&applyTest, "test-path", "", "Directory containing the pre-split test containers")
	applySplitCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Directory where the flag containers are written")
	applySplitCmd.Flags().IntVar(&applyWorkers, "workers", 1, "Number of files processed in parallel")
	applySplitCmd.Flags().StringVar(&runField, "run-field", defaults.Run, "Name of the run identity column")
	applySplitCmd.Flags().StringVar(&segmentField, "segment-field", defaults.Segment, "Name of the segment identity column")
	applySplitCmd.Flags().StringVar(&eventField, "event-field", defaults.Event, "Name of the event identity column")
	applySplitCmd.MarkFlagRequired("input")
	applySplitCmd.MarkFlagRequired("train-path")
	applySplitCmd.MarkFlagRequired("test-path")
	applySplitCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(applySplitCmd)
}
