package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowprose/graphein/core/hypothesis"
	"github.com/hollowprose/graphein/core/registry"
	"github.com/hollowprose/graphein/core/report"
)

var (
	testShuffles int
	testSeed     int64
	testRecord   bool
	testTier     int
)

var runTestCmd = &cobra.Command{
	Use:   "run-test <test-id>|all <corpus>",
	Short: "Execute registered hypothesis tests",
	Long: `Run one registered hypothesis test (or the full battery with "all")
against the pipeline outputs for a corpus snapshot. Each test judges
its statistic against the threshold it declared at registration; a
timeout or degenerate input yields INCONCLUSIVE, never a crash.

With --record, each conclusive result is proposed into the constraint
registry with its evidence attached.`,
	Args: cobra.ExactArgs(2),
	RunE: runTest,
}

var listTestsCmd = &cobra.Command{
	Use:   "list-tests",
	Short: "List the registered hypothesis battery",
	RunE:  listTests,
}

func init() {
	rootCmd.AddCommand(runTestCmd)
	rootCmd.AddCommand(listTestsCmd)
	runTestCmd.Flags().IntVar(&testShuffles, "shuffles", 0, "override permutation shuffle count")
	runTestCmd.Flags().Int64Var(&testSeed, "seed", 0, "override permutation seed")
	runTestCmd.Flags().BoolVar(&testRecord, "record", false, "propose conclusive results into the registry")
	runTestCmd.Flags().IntVar(&testTier, "tier", 3, "tier for proposed records")
}

func listTests(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	h := hypothesis.NewHarness(cfg.Harness)
	if err := hypothesis.RegisterBuiltin(h, cfg.Permutation, cfg.Harness.Alpha, cfg.Cluster.SilhouetteFloor); err != nil {
		return err
	}
	for _, id := range h.IDs() {
		fmt.Fprintln(os.Stdout, id)
	}
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if testShuffles > 0 {
		cfg.Permutation.Shuffles = testShuffles
	}
	if cmd.Flags().Changed("seed") {
		cfg.Permutation.Seed = testSeed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	run := report.NewRun("")
	ix, _, err := loadIndex(cfg, args[1], run)
	if err != nil {
		return err
	}
	g, err := buildGraph(cfg, ix, run)
	if err != nil {
		return err
	}
	_, res, err := classifyStage(cfg, ix, g)
	if err != nil {
		return err
	}

	h := hypothesis.NewHarness(cfg.Harness)
	if err := hypothesis.RegisterBuiltin(h, cfg.Permutation, cfg.Harness.Alpha, cfg.Cluster.SilhouetteFloor); err != nil {
		return err
	}

	in := &hypothesis.Inputs{Index: ix, Graph: g, Classification: res}
	var results []*hypothesis.Result
	if args[0] == "all" {
		results = h.RunAll(context.Background(), in)
	} else {
		results = h.Run(context.Background(), in, []string{args[0]})
	}

	run.RecordTests(results)
	run.Finish()
	run.WriteText(os.Stdout)
	for _, r := range results {
		fmt.Fprintf(os.Stdout, "  %-28s %-12s stat=%.4f p=%.4f effect=%.4f n=%d",
			r.TestID, r.Verdict, r.Statistic, r.PValue, r.EffectSize, r.SampleSize)
		if r.Detail != "" {
			fmt.Fprintf(os.Stdout, " (%s)", r.Detail)
		}
		fmt.Fprintln(os.Stdout)
	}

	if testRecord {
		return recordResults(cfg.Registry.Path, cfg.Registry.MaxRetries, results)
	}
	return nil
}

// recordResults proposes conclusive verdicts into the registry.
// Inconclusive runs are reported but never recorded; a partial result
// must not become a finding.
func recordResults(path string, maxRetries int, results []*hypothesis.Result) error {
	reg, closeStore, err := openRegistry(path, maxRetries)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, r := range results {
		if r.Verdict == hypothesis.VerdictInconclusive {
			continue
		}
		statement := fmt.Sprintf("test %s: verdict %s", r.TestID, r.Verdict)
		id, err := reg.Propose(statement, registry.Tier(testTier), []registry.EvidenceRef{{
			TestID:     r.TestID,
			PValue:     r.PValue,
			EffectSize: r.EffectSize,
			SampleSize: r.SampleSize,
		}})
		if err != nil {
			return err
		}
		status := registry.StatusConfirmed
		if r.Verdict == hypothesis.VerdictFail {
			status = registry.StatusFalsified
		}
		if err := reg.Resolve(id, status, nil); err != nil {
			return err
		}
	}
	return nil
}
