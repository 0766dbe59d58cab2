package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/mva"
	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

var (
	mvaInput      string // Directory with the containers to score
	mvaOutput     string // Directory receiving the score containers
	mvaDescriptor string // YAML file naming the models
	mvaWeightPath string // Base directory for relative weight file paths
)

// applyMVACmd scores every container of a directory with the models named
// in a YAML descriptor, one score column per model.
var applyMVACmd = &cobra.Command{
	Use:   "apply-mva",
	Short: "Score the containers in a directory with the configured MVAs",
	Run: func(cmd *cobra.Command, args []string) {
		mustDir(mvaInput, "input")
		mustDir(mvaOutput, "output")

		models, err := mva.LoadModels(mvaDescriptor, mvaWeightPath)
		if err != nil {
			logrus.Fatalf("Unable to book the MVAs: %v", err)
		}

		names, err := ntuple.List(mvaInput)
		if err != nil {
			logrus.Fatalf("Unable to list the input directory: %v", err)
		}

		for _, name := range names {
			logrus.Infof("Processing file %s", name)
			scored, err := mva.ApplyFile(models,
				filepath.Join(mvaInput, name),
				filepath.Join(mvaOutput, name),
			)
			if err != nil {
				logrus.Fatalf("Scoring %s failed: %v", name, err)
			}
			logrus.Debugf("Scored %d events", scored)
		}
	},
}

func init() {
	applyMVACmd.Flags().StringVarP(&mvaInput, "input", "i", "", "Directory containing the containers to score")
	applyMVACmd.Flags().StringVarP(&mvaOutput, "output", "o", "", "Directory where the score containers are written")
	applyMVACmd.Flags().StringVarP(&mvaDescriptor, "mva-file", "m", "", "YAML file describing the MVAs to apply")
	applyMVACmd.Flags().StringVar(&mvaWeightPath, "weight-path", ".", "Directory that relative weight file paths resolve against")
	applyMVACmd.MarkFlagRequired("input")
	applyMVACmd.MarkFlagRequired("output")
	applyMVACmd.MarkFlagRequired("mva-file")

	rootCmd.AddCommand(applyMVACmd)
}
