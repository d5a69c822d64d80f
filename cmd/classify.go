package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hollowprose/graphein/core/report"
)

var classifyTransitions bool

var classifyCmd = &cobra.Command{
	Use:   "classify <corpus>",
	Short: "Assign instruction-class roles and scan for forbidden transitions",
	Long: `Run the two-stage classification: morphological rules first, then
silhouette-selected clustering for the remainder. With --transitions,
scan the class bigram table for forbidden pairs against a permutation
baseline.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&classifyTransitions, "transitions", false, "also scan for forbidden transitions")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	run := report.NewRun("")
	ix, _, err := loadIndex(cfg, args[0], run)
	if err != nil {
		return err
	}
	g, err := buildGraph(cfg, ix, run)
	if err != nil {
		return err
	}
	eng, res, err := classifyStage(cfg, ix, g)
	if err != nil {
		return err
	}

	run.Finish()
	run.WriteText(os.Stdout)

	middles := make([]string, 0, len(res.Assignments))
	for m := range res.Assignments {
		middles = append(middles, m)
	}
	sort.Strings(middles)
	for _, m := range middles {
		a := res.Assignments[m]
		fmt.Fprintf(os.Stdout, "  %-16s class=%-14s role=%-12s state=%s\n", m, a.Class, a.Role, a.State)
	}
	if res.ChosenK > 0 {
		fmt.Fprintf(os.Stdout, "  cluster stage: k=%d silhouette=%.3f\n", res.ChosenK, res.Silhouette)
	}

	if classifyTransitions {
		table := eng.ScanTransitions(ix, res, cfg.Permutation.Shuffles, cfg.Permutation.Seed, cfg.Harness.Alpha)
		for _, tr := range table.Forbidden() {
			fmt.Fprintf(os.Stdout, "  FORBIDDEN %s -> %s (expected %.2f, p=%.4f, hazard=%s)\n",
				tr.From, tr.To, tr.Expected, tr.PValue, tr.Category)
		}
	}
	return nil
}
