package cmd

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
	"github.com/ntuplesplit/ntuplesplit/selection"
)

var (
	selInput      string // Directory with the containers to select on
	selOutput     string // Directory receiving one subdirectory per cut
	selDescriptor string // YAML file with the prefilter and cuts
)

// selectCmd applies one or more named selections to every container of a
// directory, with an optional common prefilter.
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Apply named cut selections to the containers in a directory",
	Run: func(cmd *cobra.Command, args []string) {
		mustDir(selInput, "input")
		mustDir(selOutput, "output")

		desc, err := selection.Load(selDescriptor)
		if err != nil {
			logrus.Fatalf("Unable to read the selection descriptor: %v", err)
		}
		selector, err := selection.Compile(desc)
		if err != nil {
			logrus.Fatalf("Unable to compile the selections: %v", err)
		}

		names, err := ntuple.List(selInput)
		if err != nil {
			logrus.Fatalf("Unable to list the input directory: %v", err)
		}

		for _, name := range names {
			// Auxiliary weight containers carry no events to select on.
			if strings.HasPrefix(name, "puWeights.") {
				continue
			}
			logrus.Infof("Processing file %s", name)
			counts, err := selector.SelectFile(filepath.Join(selInput, name), selOutput)
			if err != nil {
				logrus.Fatalf("Selection on %s failed: %v", name, err)
			}
			for cut, n := range counts {
				logrus.Debugf("Got %d events for selection %s", n, cut)
			}
		}
	},
}

func init() {
	selectCmd.Flags().StringVarP(&selInput, "input", "i", "", "Directory containing the input containers")
	selectCmd.Flags().StringVarP(&selOutput, "output", "o", "", "Directory where each selection's output subdirectory is created")
	selectCmd.Flags().StringVarP(&selDescriptor, "descriptor", "j", "", "YAML file describing the prefilter and cuts")
	selectCmd.MarkFlagRequired("input")
	selectCmd.MarkFlagRequired("output")
	selectCmd.MarkFlagRequired("descriptor")

	rootCmd.AddCommand(selectCmd)
}
