package commands

import (
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/api/client"
)

func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Generate and deliver health check reports",
		Aliases: []string{"reports", "r"},
	}

	cmd.AddCommand(newReportGenerateCommand())
	cmd.AddCommand(newReportEmailCommand())

	return cmd
}

type periodFlags struct {
	kind  string
	date  string
	start string
	end   string
	month string
	year  string
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "type", "t", "daily", "Report type: daily, weekly, monthly, yearly, custom")
	cmd.Flags().StringVar(&f.date, "date", "", "Date for daily reports (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start date for weekly/custom reports (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date for custom reports (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.month, "month", "", "Month for monthly reports (YYYY-MM)")
	cmd.Flags().StringVar(&f.year, "year", "", "Year for yearly reports")
}

func (f *periodFlags) query() url.Values {
	query := url.Values{}
	query.Set("type", f.kind)
	for param, value := range map[string]string{
		"date": f.date, "start": f.start, "end": f.end,
		"month": f.month, "year": f.year,
	} {
		if value != "" {
			query.Set(param, value)
		}
	}
	return query
}

func newReportGenerateCommand() *cobra.Command {
	var (
		period periodFlags
		format string
		env    bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}

			query := period.query()
			query.Set("format", format)
			if env {
				query.Set("env", "true")
			}

			data, err := c.GetReport(query)
			if err != nil {
				return fmt.Errorf("failed to generate report: %v", err)
			}

			if output == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write report: %v", err)
			}
			fmt.Printf("Report written to %s\n", output)
			return nil
		},
	}

	period.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, csv, pdf, json")
	cmd.Flags().BoolVar(&env, "env", false, "Include the environment temperature/humidity reading")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newReportEmailCommand() *cobra.Command {
	var (
		period     periodFlags
		recipients []string
		allUsers   bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Email a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(recipients) == 0 && !allUsers {
				return fmt.Errorf("give --to recipients or --all-users")
			}

			c, err := client.NewClient()
			if err != nil {
				return err
			}

			if err := c.EmailReport(period.query(), recipients, allUsers, format); err != nil {
				return fmt.Errorf("failed to email report: %v", err)
			}
			fmt.Println("Report sent")
			return nil
		},
	}

	period.register(cmd)
	cmd.Flags().StringArrayVar(&recipients, "to", nil, "Recipient address (repeatable)")
	cmd.Flags().BoolVar(&allUsers, "all-users", false, "Send to every registered user with an email address")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Attachment format: text, csv, pdf")
	return cmd
}
