package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/domain"
)

var userAddEmail string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage depot accounts (admin)",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAdmin(cmd); err != nil {
			return err
		}
		users, err := client.Users(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, u.Role, u.Email)
		}
		return w.Flush()
	},
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAdmin(cmd); err != nil {
			return err
		}
		password, err := promptPassword("Password for new account: ")
		if err != nil {
			return err
		}
		user := domain.User{Username: args[0], Email: userAddEmail, Role: domain.RoleUser}
		if err := client.AddUser(cmd.Context(), user, password); err != nil {
			return err
		}
		fmt.Printf("Created account %s\n", args[0])
		return nil
	},
}

var userRemoveCmd = &cobra.Command{
	Use:   "rm <username>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := requireAdmin(cmd)
		if err != nil {
			return err
		}
		// Deleting yourself would orphan the session mid-command
		if args[0] == session.Username {
			return domain.ErrSelfDelete
		}
		if err := client.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted account %s\n", args[0])
		return nil
	},
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAdmin(cmd); err != nil {
			return err
		}
		if role, err := client.RoleOf(cmd.Context(), args[0]); err == nil && role == domain.RoleAdmin {
			fmt.Printf("%s is already an admin\n", args[0])
			return nil
		}
		if err := client.AssignAdmin(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s is now an admin\n", args[0])
		return nil
	},
}

var userUpdateEmail string

var userUpdateCmd = &cobra.Command{
	Use:   "update <username>",
	Short: "Update an account's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAdmin(cmd); err != nil {
			return err
		}
		if userUpdateEmail == "" {
			return fmt.Errorf("nothing to update; pass --email")
		}
		// Role changes go through promote/demote; carry the current one
		role, err := client.RoleOf(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		user := domain.User{Username: args[0], Email: userUpdateEmail, Role: role}
		if err := client.UpdateUser(cmd.Context(), user); err != nil {
			return err
		}
		fmt.Printf("Updated account %s\n", args[0])
		return nil
	},
}

var userDemoteCmd = &cobra.Command{
	Use:   "demote <username>",
	Short: "Revoke admin rights",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := requireAdmin(cmd)
		if err != nil {
			return err
		}
		if args[0] == session.Username {
			return fmt.Errorf("cannot revoke your own admin rights")
		}
		if role, err := client.RoleOf(cmd.Context(), args[0]); err == nil && role != domain.RoleAdmin {
			fmt.Printf("%s is not an admin\n", args[0])
			return nil
		}
		if err := client.RevokeAdmin(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s is no longer an admin\n", args[0])
		return nil
	},
}

// requireAdmin checks the stored role locally; the server re-checks
// every admin endpoint regardless
func requireAdmin(cmd *cobra.Command) (domain.Session, error) {
	session, err := currentSession()
	if err != nil {
		return session, err
	}
	if !session.IsAdmin() {
		return session, domain.ErrPermissionDenied
	}
	return session, nil
}

func init() {
	userAddCmd.Flags().StringVar(&userAddEmail, "email", "", "account email address")
	userUpdateCmd.Flags().StringVar(&userUpdateEmail, "email", "", "new email address")
	userCmd.AddCommand(userListCmd, userAddCmd, userUpdateCmd, userRemoveCmd, userPromoteCmd, userDemoteCmd)
	rootCmd.AddCommand(userCmd)
}
