package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/api/client"
)

func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checks",
		Short:   "Submit and inspect daily health checks",
		Aliases: []string{"check", "c"},
	}

	cmd.AddCommand(newCheckListCommand())
	cmd.AddCommand(newCheckSubmitCommand())
	cmd.AddCommand(newCheckTodayCommand())

	return cmd
}

func newCheckListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured check names",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			checks, err := c.ListChecks()
			if err != nil {
				return fmt.Errorf("failed to list checks: %v", err)
			}
			for _, name := range checks {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newCheckSubmitCommand() *cobra.Command {
	var (
		key      string
		failures []string
		notes    []string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit today's health checks",
		Long: `Submit the full check list for a day. Every check defaults to OK;
mark failures with --fail "Check Name=reason". Attach notes with
--note "Check Name=text".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}

			checks, err := c.ListChecks()
			if err != nil {
				return fmt.Errorf("failed to list checks: %v", err)
			}

			failureByCheck, err := parsePairs(failures, "--fail")
			if err != nil {
				return err
			}
			noteByCheck, err := parsePairs(notes, "--note")
			if err != nil {
				return err
			}

			if key == "" {
				key = time.Now().Format("20060102")
			}

			records := make([]client.SubmitRecord, 0, len(checks))
			for _, name := range checks {
				rec := client.SubmitRecord{
					CheckName: name,
					Status:    "OK",
					Notes:     noteByCheck[name],
				}
				if reason, failed := failureByCheck[name]; failed {
					rec.Status = "NOT OK"
					rec.Reason = reason
				}
				records = append(records, rec)
			}

			if err := c.Submit(key, records); err != nil {
				return fmt.Errorf("failed to submit checks: %v", err)
			}
			fmt.Printf("Submitted %d checks to ledger %s\n", len(records), key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Target ledger key (YYYYMMDD, default today)")
	cmd.Flags().StringArrayVar(&failures, "fail", nil, `Failed check as "Check Name=reason" (repeatable)`)
	cmd.Flags().StringArrayVar(&notes, "note", nil, `Note as "Check Name=text" (repeatable)`)
	return cmd
}

func newCheckTodayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's submitted checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}

			key := time.Now().Format("20060102")
			records, err := c.ReadLedger(key)
			if err != nil {
				return fmt.Errorf("failed to read ledger %s: %v", key, err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "CHECK\tSTATUS\tREASON\tNOTES\tBY\t")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
					r.CheckName, r.Status, r.Reason, r.Notes, r.SubmittedBy)
			}
			w.Flush()
			return nil
		},
	}
}

func parsePairs(pairs []string, flag string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf(`%s wants "Check Name=value", got %q`, flag, pair)
		}
		result[parts[0]] = parts[1]
	}
	return result, nil
}
