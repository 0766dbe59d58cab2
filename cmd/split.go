package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/split"
)

var (
	splitInput  string // Directory with the containers to split
	splitOutput string // Directory receiving the Train/ and Test/ subsets
	trainFactor int    // Train side of the train:test ratio
	testFactor  int    // Test side of the train:test ratio
	splitSeed   int64  // Seed for the sampling generator
	seedMode    string // How randomness spreads across files
)

// splitCmd partitions every container of a directory into Train and Test
// subsets at the configured ratio.
var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split the containers of a directory into train and test subsets",
	Run: func(cmd *cobra.Command, args []string) {
		mustDir(splitInput, "input")
		mustDir(splitOutput, "output")

		mode := split.SeedMode(seedMode)
		if !mode.Valid() {
			logrus.Fatalf("Invalid seed mode: %s", seedMode)
		}
		seeded := cmd.Flags().Changed("seed")
		if !seeded {
			logrus.Info("No seed given, the split will not be reproducible")
		}

		results, err := split.SplitBatch(split.GenerateConfig{
			InputDir:    splitInput,
			OutputDir:   splitOutput,
			TrainFactor: trainFactor,
			TestFactor:  testFactor,
			Seeds:       split.NewSeedBank(splitSeed, seeded, mode),
		})
		if err != nil {
			logrus.Fatalf("Split failed: %v", err)
		}
		logSummary(results)
	},
}

func init() {
	splitCmd.Flags().StringVarP(&splitInput, "input", "i", "", "Directory containing the containers to split")
	splitCmd.Flags().StringVarP(&splitOutput, "output", "o", "", "Output directory; Train and Test subdirectories are created inside it")
	splitCmd.Flags().IntVar(&trainFactor, "train-factor", 1, "Train proportion of the train:test ratio, e.g. 10:1 is --train-factor 10 --test-factor 1")
	splitCmd.Flags().IntVar(&testFactor, "test-factor", 1, "Test proportion of the train:test ratio")
	splitCmd.Flags().Int64VarP(&splitSeed, "seed", "s", 0, "Seed for the sampling generator; omit for a non-reproducible split")
	splitCmd.Flags().StringVar(&seedMode, "seed-mode", string(split.SeedModePerFile), "How the seed spreads across files: per-file or shared")
	splitCmd.MarkFlagRequired("input")
	splitCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(splitCmd)
}
