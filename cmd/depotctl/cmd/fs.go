package cmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/core/nav"
	"github.com/depotctl/depotctl/internal/domain"
)

var (
	transferOverwrite bool
	transferKeepBoth  bool
	transferSkip      bool
	rmRecursive       bool
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <depot-directory>",
	Short: "Create a depot directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := nav.Normalize(args[0])
		parent, name := nav.Up(target), path.Base(target)
		if parent == target {
			return fmt.Errorf("cannot create a container; choose a path inside %s",
				strings.Join(domain.Containers(), ", "))
		}

		browser, err := newBrowser(nav.Container(target))
		if err != nil {
			return err
		}
		defer browser.Close()
		if err := browser.Goto(cmd.Context(), parent); err != nil {
			return err
		}
		if err := browser.CreateFolder(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", target)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <depot-path>",
	Short: "Delete a file or directory",
	Long: `Delete a depot entry. Files you do not own require admin rights.
Directories are removed with their contents and need --recursive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := nav.Normalize(args[0])
		parent, name := nav.Up(target), path.Base(target)
		if parent == target {
			return fmt.Errorf("refusing to delete a container")
		}

		browser, err := newBrowser(nav.Container(target))
		if err != nil {
			return err
		}
		defer browser.Close()
		if err := browser.Goto(cmd.Context(), parent); err != nil {
			return err
		}

		for _, e := range browser.Entries() {
			if e.Name == name && e.IsDir() && !rmRecursive {
				return fmt.Errorf("%s is a directory; use --recursive", target)
			}
		}

		if err := browser.DeleteEntry(cmd.Context(), name); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", target)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <depot-path> <new-name>",
	Short: "Rename a file or directory in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, newName := nav.Normalize(args[0]), args[1]
		parent, name := nav.Up(target), path.Base(target)
		if parent == target {
			return fmt.Errorf("containers cannot be renamed")
		}

		browser, err := newBrowser(nav.Container(target))
		if err != nil {
			return err
		}
		defer browser.Close()
		if err := browser.Goto(cmd.Context(), parent); err != nil {
			return err
		}
		if err := browser.RenameEntry(cmd.Context(), name, newName); err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %s\n", target, newName)
		return nil
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp <depot-file>... <depot-directory>",
	Short: "Copy files to another depot directory",
	Args:  cobra.MinimumNArgs(2),
	RunE:  transferRunE(domain.OpCopy),
}

var mvCmd = &cobra.Command{
	Use:   "mv <depot-file>... <depot-directory>",
	Short: "Move files to another depot directory",
	Args:  cobra.MinimumNArgs(2),
	RunE:  transferRunE(domain.OpMove),
}

// transferRunE builds the shared copy/move handler. All sources must
// live in one directory. Directory sources transfer as whole subtrees;
// file collisions at the destination follow the same resolution
// protocol as uploads.
func transferRunE(op domain.FileOp) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		sources, dest := args[:len(args)-1], nav.Normalize(args[len(args)-1])

		srcDir := ""
		names := make([]string, 0, len(sources))
		for _, s := range sources {
			s = nav.Normalize(s)
			dir, name := nav.Up(s), path.Base(s)
			if dir == s {
				return fmt.Errorf("%s does not name an entry inside a directory", s)
			}
			if srcDir == "" {
				srcDir = dir
			} else if srcDir != dir {
				return fmt.Errorf("all sources must be in the same directory")
			}
			names = append(names, name)
		}

		browser, err := newBrowser(nav.Container(dest))
		if err != nil {
			return err
		}
		defer browser.Close()

		childDirs, err := client.Directories(cmd.Context(), srcDir)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", srcDir, err)
		}
		isDir := make(map[string]bool, len(childDirs))
		for _, e := range childDirs {
			isDir[e.Name] = true
		}

		var dirNames, fileNames []string
		for _, n := range names {
			if isDir[n] {
				dirNames = append(dirNames, n)
			} else {
				fileNames = append(fileNames, n)
			}
		}

		verb := "Copied"
		if op == domain.OpMove {
			verb = "Moved"
		}

		// Subtrees go wholesale; the server merges them under dest
		for _, n := range dirNames {
			src := nav.Join(srcDir, n)
			if op == domain.OpCopy {
				err = client.CopyDirectory(cmd.Context(), src, dest)
			} else {
				err = client.MoveDirectory(cmd.Context(), src, dest)
			}
			if err != nil {
				return fmt.Errorf("%s %s failed: %w", op, n, err)
			}
		}

		transferred := len(dirNames)
		if len(fileNames) > 0 {
			plan := browser.PlanTransfer(cmd.Context(), op, dest, fileNames)
			if plan.Degraded {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: could not check for existing files; duplicates will be kept under suffixed names")
			}
			if plan.HasConflicts() {
				browser.BeginModal()
				resolution, err := chooseResolution(plan, transferOverwrite, transferKeepBoth, transferSkip)
				browser.EndModal()
				if err != nil {
					return err
				}
				plan.Apply(resolution)
			}

			if err := browser.ExecuteTransfer(cmd.Context(), plan, srcDir); err != nil {
				return err
			}
			transferred += len(plan.Outgoing())
		}

		fmt.Printf("%s %d entr%s to %s\n", verb, transferred, plural(transferred, "y", "ies"), dest)
		return nil
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "R", false, "allow deleting directories")
	for _, c := range []*cobra.Command{cpCmd, mvCmd} {
		c.Flags().BoolVar(&transferOverwrite, "overwrite", false, "overwrite existing files")
		c.Flags().BoolVar(&transferKeepBoth, "keep-both", false, "keep both; the server suffixes the new name")
		c.Flags().BoolVar(&transferSkip, "skip", false, "skip files that already exist")
	}
	rootCmd.AddCommand(mkdirCmd, rmCmd, renameCmd, cpCmd, mvCmd)
}
