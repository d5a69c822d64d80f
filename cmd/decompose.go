package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowprose/graphein/core/report"
)

var decomposeJSON bool

var decomposeCmd = &cobra.Command{
	Use:   "decompose <corpus>",
	Short: "Decompose a corpus and report parse statistics",
	Long: `Decompose every token of a corpus snapshot into prefix/middle/suffix
under the configured grammar and print the aggregate parse report.
Unparseable tokens are tagged and counted, never dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompose,
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	decomposeCmd.Flags().BoolVar(&decomposeJSON, "json", false, "emit the run report as JSON")
}

func runDecompose(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	run := report.NewRun("")
	if _, _, err := loadIndex(cfg, args[0], run); err != nil {
		return err
	}
	run.Finish()
	if decomposeJSON {
		return run.WriteJSON(os.Stdout)
	}
	run.WriteText(os.Stdout)
	return nil
}
