package wsconfigcli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oremus-labs/wsconfig-core/internal/hwprofile"
	"github.com/oremus-labs/wsconfig-core/internal/recommend"
	"github.com/oremus-labs/wsconfig-core/internal/userprofile"
)

var (
	recommendUserFile     string
	recommendHardwareFile string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Run the hardware-aware recommendation pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if recommendUserFile == "" {
			err := fmt.Errorf("--user is required (path to a user profile JSON document)")
			exitWithError(err)
			return err
		}

		user, err := loadUserProfile(recommendUserFile)
		if err != nil {
			exitWithError(err)
			return err
		}

		profile, err := resolveHardwareProfile(recommendHardwareFile)
		if err != nil {
			exitWithError(err)
			return err
		}

		cat, err := loadCatalog()
		if err != nil {
			exitWithError(err)
			return err
		}

		result, err := recommend.Recommend(context.Background(), user, profile, cat, recommend.Options{})
		if err != nil {
			exitWithError(err)
			return err
		}

		if outputFormat == "json" {
			return printJSON(result)
		}

		installEstimate := time.Duration(result.Manifest.EstimatedInstallMinutes * float64(time.Minute))
		fmt.Printf("Recommendation %s (%d model(s) selected, %.1f GB, ~%s to install)\n",
			result.ID, len(result.Manifest.Selected), result.Manifest.TotalSizeGB,
			humanDuration(installEstimate))

		tw := newTable()
		fmt.Fprintf(tw, "MODEL\tVARIANT\tEXECUTION\n")
		for _, s := range result.Manifest.Selected {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ModelID, s.VariantID, s.ExecutionMode)
		}
		flushTable(tw)

		if len(result.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for _, w := range result.Warnings {
				fmt.Printf("  [%s] %s: %s\n", w.Severity, w.Title, w.Message)
			}
		}

		for _, s := range result.Manifest.Selected {
			if exp, ok := result.Reasoning[s.ModelID]; ok {
				fmt.Printf("\n%s\n  %s\n  %s\n", s.ModelID, exp.SelectionSummary, exp.HardwareFit)
			}
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendUserFile, "user", "", "Path to a user profile JSON document (required)")
	recommendCmd.Flags().StringVar(&recommendHardwareFile, "hardware", "", "Path to a hardware profile JSON document (omit to probe this machine live)")
}

func loadUserProfile(path string) (userprofile.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return userprofile.UserProfile{}, fmt.Errorf("read user profile: %w", err)
	}
	var profile userprofile.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return userprofile.UserProfile{}, fmt.Errorf("decode user profile: %w", err)
	}
	return profile, nil
}

func resolveHardwareProfile(path string) (*hwprofile.HardwareProfile, error) {
	if path == "" {
		return hwprofile.Detect(context.Background(), hwprofile.Options{ModelCacheDir: appConfig.ModelCacheDir})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hardware profile: %w", err)
	}
	var profile hwprofile.HardwareProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode hardware profile: %w", err)
	}
	return &profile, nil
}

