package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List files carrying instruction messages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := currentSession()
		if err != nil {
			return err
		}

		entries, err := client.FilesWithMessages(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		shown := 0
		for _, e := range entries {
			// Admins see every message, users only their own inbox
			if !session.IsAdmin() && e.Receiver != session.Username {
				continue
			}
			fmt.Fprintf(w, "%s\t%s/%s\t%s\t%s\n", e.ID, e.Directory, e.Name, e.Owner, e.Message)
			shown++
		}
		if shown == 0 {
			fmt.Println("No pending messages")
			return nil
		}
		return w.Flush()
	},
}

var messageDoneCmd = &cobra.Command{
	Use:   "done <file-id>",
	Short: "Mark a message as handled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		if err := client.MarkMessageDone(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Marked as done")
		return nil
	},
}

func init() {
	messagesCmd.AddCommand(messageDoneCmd)
	rootCmd.AddCommand(messagesCmd)
}
