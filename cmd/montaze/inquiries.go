package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eringen/montaze/inquiry"
)

var (
	flagStatus string
	flagLimit  int
	flagOffset int
)

var inquiriesCmd = &cobra.Command{
	Use:   "inquiries",
	Short: "List stored inquiries",
	RunE:  runInquiries,
}

var inquiriesReadCmd = &cobra.Command{
	Use:   "read <id>...",
	Short: "Mark inquiries as read",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInquiriesRead,
}

func init() {
	inquiriesCmd.Flags().StringVarP(&flagStatus, "status", "s", "", "filter by status (new, read)")
	inquiriesCmd.Flags().IntVarP(&flagLimit, "limit", "l", 50, "maximum rows")
	inquiriesCmd.Flags().IntVar(&flagOffset, "offset", 0, "rows to skip")
	inquiriesCmd.AddCommand(inquiriesReadCmd)
	rootCmd.AddCommand(inquiriesCmd)
}

func openStore() (*inquiry.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return inquiry.NewStore(cfg.DatabasePath)
}

func runInquiries(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	status := inquiry.Status(flagStatus)
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown status %q", flagStatus)
	}
	items, total, err := store.List(cmd.Context(), inquiry.ListOptions{Limit: flagLimit, Offset: flagOffset, Status: status})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATUM\tSTAV\tJMÉNO\tEMAIL\tTELEFON\tSLUŽBA")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.CreatedAt.Local().Format(time.DateTime), it.Status, it.Name, it.Email, it.Phone, it.Service)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d z %d\n", len(items), total)
	return nil
}

func runInquiriesRead(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range args {
		if err := store.UpdateStatus(cmd.Context(), id, inquiry.StatusRead); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Printf("%s: přečteno\n", id)
	}
	return nil
}
