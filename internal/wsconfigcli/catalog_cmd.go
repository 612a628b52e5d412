package wsconfigcli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oremus-labs/wsconfig-core/internal/modelcatalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the declarative model catalog",
}

var catalogModality string

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries, optionally filtered by modality",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			exitWithError(err)
			return err
		}

		var entries []*modelcatalog.Entry
		if catalogModality != "" {
			entries = cat.CandidatesFor(modelcatalog.Modality(catalogModality))
		} else {
			entries = cat.All()
		}

		if outputFormat == "json" {
			return printJSON(entries)
		}

		tw := newTable()
		fmt.Fprintf(tw, "ID\tFAMILY\tMODALITIES\tVARIANTS\tCLOUD\n")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%t\n", e.ID, e.Family, strings.Join(e.Capabilities.Primary, ","), len(e.Variants), e.Cloud.Available)
		}
		flushTable(tw)
		return nil
	},
}

var catalogGetCmd = &cobra.Command{
	Use:   "get <model-id>",
	Short: "Show one catalog entry in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			exitWithError(err)
			return err
		}
		entry := cat.Get(args[0])
		if entry == nil {
			err := fmt.Errorf("model %q not found in catalog", args[0])
			exitWithError(err)
			return err
		}
		return printJSON(entry)
	},
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogModality, "modality", "", "Filter by modality (image|video|audio|3d)")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogGetCmd)
}

func loadCatalog() (*modelcatalog.Catalog, error) {
	cat := modelcatalog.New()
	if err := cat.Load(appConfig.CatalogPath); err != nil {
		return nil, err
	}
	return cat, nil
}
