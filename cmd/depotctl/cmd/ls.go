package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/api"
	"github.com/depotctl/depotctl/internal/core/nav"
	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/progress"
)

var (
	lsLong bool
	lsAll  bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [directory]",
	Short: "List a depot directory",
	Long: `List the entries of a depot directory: sub-directories first, then
files, matching the order of the web views. Without an argument the
depot root is listed; the three containers always appear there, even
when the backend listing omits them. With --all every file in the
depot is listed with its full path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}

		var entries []domain.Entry
		if lsAll {
			all, err := client.AllFiles(cmd.Context())
			if err != nil {
				return err
			}
			entries = all
		} else {
			dir := ""
			if len(args) > 0 {
				dir = nav.Normalize(args[0])
			}
			browser, err := newBrowser(nav.Container(dir))
			if err != nil {
				return err
			}
			defer browser.Close()
			if err := browser.Goto(cmd.Context(), dir); err != nil {
				return err
			}
			entries = browser.Entries()
		}

		if !lsLong {
			for _, e := range entries {
				fmt.Println(displayName(e))
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			size := "-"
			if e.IsFile() {
				size = progress.FormatBytes(e.SizeBytes())
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", size, e.Owner, displayName(e))
		}
		return w.Flush()
	},
}

// displayName renders an entry for listing output: directories carry a
// trailing slash, the whole-depot listing shows full paths.
func displayName(e domain.Entry) string {
	name := e.Name
	if lsAll && e.Directory != "" {
		name = nav.Join(e.Directory, e.Name)
	}
	if e.IsDir() {
		name += "/"
	}
	return name
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the full directory tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		nodes, err := client.Tree(cmd.Context())
		if err != nil {
			return err
		}
		printTree(nodes, 0)
		return nil
	},
}

func printTree(nodes []api.TreeNode, depth int) {
	for _, n := range nodes {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.Name)
		printTree(n.Children, depth+1)
	}
}

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show size and owner")
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "list every file in the depot")
	rootCmd.AddCommand(lsCmd, treeCmd)
}
