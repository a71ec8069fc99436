package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change local preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prefs, err := stateMgr.LoadPrefs()
		if err != nil {
			return err
		}
		fmt.Printf("dark-mode: %t\nnotifications: %t\n", prefs.DarkMode, prefs.Notifications)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <dark-mode|notifications> <true|false>",
	Short: "Change a preference",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("value must be true or false")
		}

		prefs, err := stateMgr.LoadPrefs()
		if err != nil {
			return err
		}
		switch args[0] {
		case "dark-mode":
			prefs.DarkMode = value
		case "notifications":
			prefs.Notifications = value
		default:
			return fmt.Errorf("unknown preference %q", args[0])
		}
		if err := stateMgr.SavePrefs(prefs); err != nil {
			return err
		}
		fmt.Printf("%s = %t\n", args[0], value)
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
