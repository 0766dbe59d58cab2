package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
	"github.com/ntuplesplit/ntuplesplit/skim"
	"github.com/ntuplesplit/ntuplesplit/split"
)

var (
	skimInput      string // Directory with the containers to skim
	skimOutput     string // Directory receiving the skimmed containers
	skimDescriptor string // YAML file describing the skim
)

// skimCmd reduces every container of a directory to the branches named in
// a YAML descriptor, with optional renaming, sentinel reinterpretation
// and a seeded downsample.
var skimCmd = &cobra.Command{
	Use:   "skim",
	Short: "Skim the containers in a directory down to a declared branch set",
	Run: func(cmd *cobra.Command, args []string) {
		mustDir(skimInput, "input")
		mustDir(skimOutput, "output")

		desc, err := skim.Load(skimDescriptor)
		if err != nil {
			logrus.Fatalf("Unable to read the skim descriptor: %v", err)
		}

		// One generator seeded once, like the original toolchain: the
		// downsample is deterministic for the whole batch as a unit.
		var seed int64
		if desc.Seed != nil {
			seed = *desc.Seed
		}
		bank := split.NewSeedBank(seed, desc.Seed != nil, split.SeedModeShared)

		names, err := ntuple.List(skimInput)
		if err != nil {
			logrus.Fatalf("Unable to list the input directory: %v", err)
		}

		skimmer := skim.New(desc)
		for _, name := range names {
			logrus.Infof("Processing file %s", name)
			read, written, err := skimmer.SkimFile(
				bank.ForFile(name),
				filepath.Join(skimInput, name),
				filepath.Join(skimOutput, name),
			)
			if err != nil {
				logrus.Fatalf("Skim of %s failed: %v", name, err)
			}
			logrus.Debugf("Kept %d of %d events", written, read)
		}
	},
}

func init() {
	skimCmd.Flags().StringVarP(&skimInput, "input", "i", "", "Directory containing the containers to skim")
	skimCmd.Flags().StringVarP(&skimOutput, "output", "o", "", "Directory where the skimmed containers are written")
	skimCmd.Flags().StringVarP(&skimDescriptor, "descriptor", "y", "", "YAML file describing the skim to perform")
	skimCmd.MarkFlagRequired("input")
	skimCmd.MarkFlagRequired("output")
	skimCmd.MarkFlagRequired("descriptor")

	rootCmd.AddCommand(skimCmd)
}
