package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/core/search"
	"github.com/depotctl/depotctl/internal/domain"
)

var (
	searchContainer string
	searchDir       string
	searchRecent    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search depot entries by name",
	Long: `Search for files and directories. The scope narrows with --container
and --dir the same way the web views scope their search boxes: a
container view never searches outside its container. Results are ranked
exact match first, then prefix, then substring; directories before
files within a tier. Submitted terms land in the per-view history,
shown with --recent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}
		if searchContainer != "" && !domain.IsContainer(searchContainer) {
			return fmt.Errorf("unknown container %q", searchContainer)
		}

		view := searchContainer
		if view == "" {
			view = "depot"
		}

		if searchRecent {
			terms, err := stateMgr.RecentSearches(view)
			if err != nil {
				return err
			}
			for _, t := range terms {
				fmt.Println(t)
			}
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a search term is required (or use --recent)")
		}
		term := args[0]

		scope := search.ScopeFor(searchContainer, searchDir)
		results, err := client.Search(cmd.Context(), term, scope)
		if err != nil {
			return err
		}
		results = search.Rank(results, term)

		if err := stateMgr.PushRecentSearch(view, term); err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No matches")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, s := range results {
			kind := "file"
			if s.Type == domain.EntryTypeDirectory {
				kind = "dir"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", kind, s.Directory, s.Name)
		}
		return w.Flush()
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchContainer, "container", "c", "", "restrict to one container")
	searchCmd.Flags().StringVarP(&searchDir, "dir", "d", "", "restrict to a directory subtree")
	searchCmd.Flags().BoolVar(&searchRecent, "recent", false, "show the view's recent search terms")
	rootCmd.AddCommand(searchCmd)
}
