package cmd

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the depot server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		session, err := client.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		if err := stateMgr.SaveSession(session); err != nil {
			return fmt.Errorf("logged in but failed to store session: %w", err)
		}

		fmt.Printf("Logged in as %s (%s)\n", session.Username, session.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := stateMgr.LoadSession()
		if err != nil {
			return err
		}
		if session.Valid() {
			// Best effort; the local session is cleared regardless
			if err := client.Logout(cmd.Context(), session.Username); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: server logout failed: %v\n", err)
			}
		}
		if err := stateMgr.ClearSession(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Register a new account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The first account registered on a fresh server becomes the
		// administrator
		firstAccount := false
		if exists, err := client.AdminExists(cmd.Context()); err == nil && !exists {
			firstAccount = true
			fmt.Println("No administrator exists yet; this account will be the first admin")
		}

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		if err := client.Register(cmd.Context(), args[0], password, args[1]); err != nil {
			return err
		}
		if firstAccount {
			fmt.Println("Administrator account created; you can now log in")
		} else {
			fmt.Println("Account created; you can now log in")
		}
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password <username>",
	Short: "Request a password reset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.ForgotPassword(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Password reset requested; check with your administrator")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored login identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := currentSession()
		if err != nil {
			return err
		}

		// Re-check the role with the server when reachable; the stored
		// role may lag behind an admin grant
		if role, err := client.Role(cmd.Context()); err == nil && role != session.Role {
			session.Role = role
			stateMgr.SaveSession(session)
		}

		fmt.Printf("%s (%s)\n", session.Username, session.Role)
		return nil
	},
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		data, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password := strings.TrimSpace(string(data))
		if password == "" {
			return "", fmt.Errorf("password cannot be empty")
		}
		return password, nil
	}

	// Non-interactive input (tests, pipes)
	var password string
	if _, err := fmt.Scanln(&password); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, forgotPasswordCmd, whoamiCmd)
}
