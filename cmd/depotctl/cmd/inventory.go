package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/domain"
)

var (
	invCategory string
	invQuantity int
	invLocation string
	invNotes    string

	activityLimit int
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Manage tracked stock records",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stock records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		items, err := client.Inventory(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tQTY\tNAME\tCATEGORY\tLOCATION")
		for _, it := range items {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", it.ID, it.Quantity, it.Name, it.Category, it.Location)
		}
		return w.Flush()
	},
}

var inventoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a stock record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		item := domain.InventoryItem{
			Name:     args[0],
			Category: invCategory,
			Quantity: invQuantity,
			Location: invLocation,
			Notes:    invNotes,
		}
		if err := client.CreateInventoryItem(cmd.Context(), item); err != nil {
			return err
		}
		fmt.Printf("Added %s (qty %d)\n", item.Name, item.Quantity)
		return nil
	},
}

var inventoryUpdateCmd = &cobra.Command{
	Use:   "update <id> <name>",
	Short: "Replace a stock record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		item := domain.InventoryItem{
			ID:       id,
			Name:     args[1],
			Category: invCategory,
			Quantity: invQuantity,
			Location: invLocation,
			Notes:    invNotes,
		}
		if err := client.UpdateInventoryItem(cmd.Context(), item); err != nil {
			return err
		}
		fmt.Printf("Updated record %d\n", id)
		return nil
	},
}

var inventoryRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a stock record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		if err := client.DeleteInventoryItem(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted record %d\n", id)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the backend audit log (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAdmin(cmd); err != nil {
			return err
		}
		records, err := client.AuditLogs(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.Timestamp.Format("2006-01-02 15:04:05"), r.Username, r.Action, r.Target)
		}
		return w.Flush()
	},
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "Show the recent-activity feed",
	Long: `Show recent depot activity. When the server is unreachable the feed
falls back to the copy last cached by the watcher.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}

		activities, err := client.Activities(cmd.Context())
		if err != nil {
			cached, cacheErr := stateMgr.CachedActivities(activityLimit)
			if cacheErr != nil || len(cached) == 0 {
				return err
			}
			fmt.Fprintln(os.Stderr, "Warning: server unreachable, showing cached activity")
			activities = cached
		} else {
			stateMgr.CacheActivities(activities)
			if len(activities) > activityLimit {
				activities = activities[:activityLimit]
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, a := range activities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				a.Timestamp.Format("2006-01-02 15:04:05"), a.Username, a.Action, a.Detail)
		}
		return w.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{inventoryAddCmd, inventoryUpdateCmd} {
		c.Flags().StringVar(&invCategory, "category", "", "item category")
		c.Flags().IntVar(&invQuantity, "quantity", 1, "item quantity")
		c.Flags().StringVar(&invLocation, "location", "", "storage location")
		c.Flags().StringVar(&invNotes, "notes", "", "free-form notes")
	}
	activitiesCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "maximum entries to show")

	inventoryCmd.AddCommand(inventoryListCmd, inventoryAddCmd, inventoryUpdateCmd, inventoryRemoveCmd)
	rootCmd.AddCommand(inventoryCmd, auditCmd, activitiesCmd)
}
