package wsconfigcli

import (
	"github.com/spf13/cobra"

	"github.com/oremus-labs/wsconfig-core/config"
)

var (
	outputFormat string
	catalogPath  string
	cacheDir     string

	appConfig *config.Config
)

// Execute runs the CLI.
func Execute() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "wsconfig",
	Short: "Hardware-aware AI model recommendation for this workstation",
	Long: `wsconfig probes this machine's hardware, matches it against the
generative-model catalog, and produces a ranked, explainable installation
plan. It runs entirely in-process against the recommendation pipeline; it
has no remote control plane.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appConfig = config.Load()
		if catalogPath != "" {
			appConfig.CatalogPath = catalogPath
		}
		if cacheDir != "" {
			appConfig.ModelCacheDir = cacheDir
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to the catalog JSON document (overrides WSCONFIG_CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory the storage probe measures free/total capacity against")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(serveCmd)
}
