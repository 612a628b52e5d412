package wsconfigcli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Probe this machine's hardware and print the normalized profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := hwprofile.Detect(context.Background(), hwprofile.Options{ModelCacheDir: appConfig.ModelCacheDir})
		if err != nil {
			exitWithError(err)
			return err
		}

		if outputFormat == "json" {
			return printJSON(profile)
		}

		tw := newTable()
		fmt.Fprintf(tw, "PLATFORM\t%s\n", profile.Platform)
		fmt.Fprintf(tw, "TIER\t%s\n", profile.Tier)
		fmt.Fprintf(tw, "EFFECTIVE VRAM\t%.1f GB\n", profile.EffectiveVRAMGB)
		fmt.Fprintf(tw, "GPU\t%s (%.1f GB, %s)\n", profile.GPU.Name, profile.GPU.VRAMGB, profile.GPU.Vendor)
		fmt.Fprintf(tw, "CPU\t%s (%d cores, tier %s)\n", profile.CPU.Model, profile.CPU.PhysicalCores, profile.CPU.Tier)
		fmt.Fprintf(tw, "RAM\t%.1f GB total, %.1f GB usable for offload\n", profile.RAM.TotalGB, profile.RAM.UsableForOffloadGB)
		fmt.Fprintf(tw, "STORAGE\t%.0f GB free / %.0f GB total (%s)\n", profile.Storage.FreeGB, profile.Storage.TotalGB, profile.Storage.Tier)
		fmt.Fprintf(tw, "FORM FACTOR\tlaptop=%t sustained_ratio=%.2f\n", profile.FormFactor.IsLaptop, profile.FormFactor.SustainedPerformanceRatio)
		flushTable(tw)

		if len(profile.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for _, w := range profile.Warnings {
				fmt.Printf("  - %s\n", w.Error())
			}
		}
		return nil
	},
}
