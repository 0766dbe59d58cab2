package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntuplesplit/ntuplesplit/diffdir"
)

var (
	diffLeft         string  // Left directory
	diffRight        string  // Right directory
	diffIgnoreSuffix string  // Suffix stripped from names before pairing
	diffVariable     string  // Variable whose mean is compared
	diffRelTol       float64 // Allowed relative divergence of that mean
)

// diffCmd compares two directories of containers file by file.
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the containers of two directories",
	Run: func(cmd *cobra.Command, args []string) {
		mustDir(diffLeft, "left")
		mustDir(diffRight, "right")

		reports, summary, err := diffdir.Compare(diffLeft, diffRight, diffdir.Options{
			IgnoreSuffix: diffIgnoreSuffix,
			Variable:     diffVariable,
			RelTol:       diffRelTol,
		})
		if err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}

		for _, rep := range reports {
			switch {
			case rep.OK && rep.Advisory != "":
				fmt.Printf("%s: ok (%s)\n", rep.Name, rep.Advisory)
			case rep.OK:
				fmt.Printf("%s: ok\n", rep.Name)
			default:
				fmt.Printf("%s: %s\n", rep.Name, rep.Message)
			}
		}
		fmt.Printf("%d files compared, %d matching, %d differing\n",
			summary.Files, summary.Matching, summary.Differing)
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffLeft, "left", "", "Left directory of containers")
	diffCmd.Flags().StringVar(&diffRight, "right", "", "Right directory of containers")
	diffCmd.Flags().StringVar(&diffIgnoreSuffix, "ignore-suffix", "", "Suffix stripped from file names before pairing")
	diffCmd.Flags().StringVar(&diffVariable, "variable", "nVert", "Variable whose per-file mean is compared")
	diffCmd.Flags().Float64Var(&diffRelTol, "rel-tol", 1e-6, "Allowed relative divergence of the variable mean")
	diffCmd.MarkFlagRequired("left")
	diffCmd.MarkFlagRequired("right")

	rootCmd.AddCommand(diffCmd)
}
