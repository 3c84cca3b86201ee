package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/api/client"
)

func NewLedgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Manage day ledgers",
		Aliases: []string{"ledgers", "l"},
	}

	cmd.AddCommand(newLedgerListCommand())
	cmd.AddCommand(newLedgerShowCommand())
	cmd.AddCommand(newLedgerExportCommand())
	cmd.AddCommand(newLedgerCopyCommand())
	cmd.AddCommand(newLedgerDeleteCommand())
	cmd.AddCommand(newLedgerClearCommand())

	return cmd
}

func newLedgerListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all day ledgers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			keys, err := c.ListLedgers()
			if err != nil {
				return fmt.Errorf("failed to list ledgers: %v", err)
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			return nil
		},
	}
}

func newLedgerShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [key]",
		Short: "Show the records of one day ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			records, err := c.ReadLedger(args[0])
			if err != nil {
				return fmt.Errorf("failed to read ledger: %v", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "CHECK\tSTATUS\tREASON\tNOTES\tBY\tTIMESTAMP\t")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
					r.CheckName, r.Status, r.Reason, r.Notes, r.SubmittedBy,
					r.Timestamp.Format(time.RFC3339))
			}
			w.Flush()
			return nil
		},
	}
}

func newLedgerExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [key]",
		Short: "Export one day ledger as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			data, err := c.ExportLedger(args[0])
			if err != nil {
				return fmt.Errorf("failed to export ledger: %v", err)
			}

			if output == "" {
				output = fmt.Sprintf("health_check_%s.csv", args[0])
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write export: %v", err)
			}
			fmt.Printf("Ledger exported to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default health_check_<key>.csv)")
	return cmd
}

func newLedgerCopyCommand() *cobra.Command {
	var (
		source string
		dest   string
	)

	cmd := &cobra.Command{
		Use:   "copy-forward",
		Short: "Copy a ledger to a new day (default yesterday to today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			if err := c.CopyForward(source, dest); err != nil {
				return fmt.Errorf("failed to copy ledger: %v", err)
			}
			fmt.Println("Ledger copied")
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source ledger key (YYYYMMDD)")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination ledger key (YYYYMMDD)")
	return cmd
}

// confirm asks for interactive confirmation unless --yes was given.
// Deleting ledgers is irreversible.
func confirm(skip bool, prompt string) bool {
	if skip {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func newLedgerDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete one day ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(yes, fmt.Sprintf("Delete ledger %s? This cannot be undone.", args[0])) {
				fmt.Println("Aborted")
				return nil
			}
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			if err := c.DeleteLedger(args[0]); err != nil {
				return fmt.Errorf("failed to delete ledger: %v", err)
			}
			fmt.Printf("Deleted ledger %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newLedgerClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete ALL day ledgers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(yes, "This deletes ALL health check data! Are you sure?") {
				fmt.Println("Aborted")
				return nil
			}
			c, err := client.NewClient()
			if err != nil {
				return err
			}
			count, err := c.ClearLedgers()
			if err != nil {
				return fmt.Errorf("failed to clear ledgers: %v", err)
			}
			fmt.Printf("Deleted %d ledgers\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
