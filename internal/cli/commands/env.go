package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/api/client"
)

func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the data center temperature and humidity",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			a, err := c.GetTelemetry()
			if err != nil {
				return fmt.Errorf("failed to fetch telemetry: %v", err)
			}

			if a.Err != "" {
				fmt.Printf("Error: %s\n", a.Err)
				return nil
			}
			fmt.Printf("Temperature: %s C (%s)\n", formatReading(a.Temperature), a.TemperatureStatus)
			fmt.Printf("Humidity: %s %% (%s)\n", formatReading(a.Humidity), a.HumidityStatus)
			return nil
		},
	}
}

func formatReading(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}
