package recommend

import "fmt"

func formatPercentLoss(loss float64) string {
	return fmt.Sprintf("-%.0f%%", loss)
}

func formatCloudCost(costPerGen float64, service string) string {
	if service == "" {
		service = "a cloud provider"
	}
	return fmt.Sprintf("runs via %s at an estimated $%.3f per generation", service, costPerGen)
}
