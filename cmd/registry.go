package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hollowprose/graphein/core/registry"
)

var (
	exportMaxTier int
	exportStatus  string
)

var exportRegistryCmd = &cobra.Command{
	Use:   "export-registry",
	Short: "Export a tier-filtered registry snapshot as JSON",
	Long: `Export the constraint registry as structured JSON for external
documentation tooling. The export is a filtered read-only view; the
underlying event log is never modified.`,
	Args: cobra.NoArgs,
	RunE: runExportRegistry,
}

func init() {
	rootCmd.AddCommand(exportRegistryCmd)
	exportRegistryCmd.Flags().IntVar(&exportMaxTier, "max-tier", -1, "include only records at or below this tier")
	exportRegistryCmd.Flags().StringVar(&exportStatus, "status", "", "include only records with this status")
}

// openRegistry selects the sqlite store, or the in-memory store when
// no path is configured.
func openRegistry(path string, maxRetries int) (*registry.Registry, func(), error) {
	if path == "" {
		store := registry.NewMemStore()
		return registry.New(store, maxRetries), func() {}, nil
	}
	store, err := registry.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return registry.New(store, maxRetries), func() { store.Close() }, nil
}

func runExportRegistry(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, closeStore, err := openRegistry(cfg.Registry.Path, cfg.Registry.MaxRetries)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := reg.Export(registry.ExportFilter{
		MaxTier: exportMaxTier,
		Status:  registry.Status(exportStatus),
	})
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
