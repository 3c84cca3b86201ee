package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/api/client"
)

func NewMaintenanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maintenance",
		Short:   "Record and list maintenance interventions",
		Aliases: []string{"m"},
	}

	cmd.AddCommand(newMaintenanceListCommand())
	cmd.AddCommand(newMaintenanceAddCommand())

	return cmd
}

func newMaintenanceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List maintenance interventions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			interventions, err := c.ListMaintenance()
			if err != nil {
				return fmt.Errorf("failed to list interventions: %v", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tBY\t")
			for _, m := range interventions {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n",
					m.ID, m.Date.Format("2006-01-02"), m.Description, m.PerformedBy)
			}
			w.Flush()
			return nil
		},
	}
}

func newMaintenanceAddCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "add [description]",
		Short: "Record a maintenance intervention",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			if err := c.AddMaintenance(date, args[0]); err != nil {
				return fmt.Errorf("failed to add intervention: %v", err)
			}
			fmt.Println("Intervention recorded")
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Intervention date (YYYY-MM-DD, default today)")
	return cmd
}
