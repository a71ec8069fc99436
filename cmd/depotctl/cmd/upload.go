package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb"
	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/core/conflict"
	"github.com/depotctl/depotctl/internal/core/nav"
	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/service"
)

var (
	uploadOverwrite bool
	uploadKeepBoth  bool
	uploadSkip      bool
	uploadMessage   string
	uploadReceiver  string
	uploadNoBar     bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-file>... <depot-directory>",
	Short: "Upload files into a depot directory",
	Long: `Upload one or more local files. Name collisions at the destination
are detected first; resolve them with --overwrite, --keep-both or
--skip, or interactively when no flag is given. With --keep-both the
server stores the new file under a suffixed name.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		locals, dest := args[:len(args)-1], nav.Normalize(args[len(args)-1])
		if nav.Container(dest) == "" {
			return fmt.Errorf("destination must be inside a container (%s)",
				strings.Join(domain.Containers(), ", "))
		}

		browser, err := newBrowser(nav.Container(dest))
		if err != nil {
			return err
		}
		defer browser.Close()
		if err := browser.Goto(cmd.Context(), dest); err != nil {
			return err
		}

		names := make([]string, 0, len(locals))
		sizes := make(map[string]int64, len(locals))
		for _, l := range locals {
			info, err := os.Stat(l)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory; upload files individually", l)
			}
			name := filepath.Base(l)
			names = append(names, name)
			sizes[name] = info.Size()
		}

		plan := browser.PlanUpload(cmd.Context(), names)
		if plan.Degraded {
			fmt.Fprintln(os.Stderr, "Warning: could not check for existing files; duplicates will be kept under suffixed names")
		}
		if plan.HasConflicts() {
			// Suppress background refresh while the prompt is open
			browser.BeginModal()
			resolution, err := chooseResolution(plan, uploadOverwrite, uploadKeepBoth, uploadSkip)
			browser.EndModal()
			if err != nil {
				return err
			}
			plan.Apply(resolution)
		}

		sources := make(map[string]io.Reader, len(locals))
		files := make([]*os.File, 0, len(locals))
		defer func() {
			for _, f := range files {
				f.Close()
			}
		}()

		var bar *pb.ProgressBar
		if !uploadNoBar {
			var total int64
			for _, it := range plan.Outgoing() {
				total += sizes[it.Name]
			}
			bar = pb.New64(total).SetUnits(pb.U_BYTES)
			bar.Start()
			defer bar.Finish()
		}

		outgoing := make(map[string]bool)
		for _, it := range plan.Outgoing() {
			outgoing[it.Name] = true
		}
		for _, l := range locals {
			name := filepath.Base(l)
			if !outgoing[name] {
				continue
			}
			f, err := os.Open(l)
			if err != nil {
				return err
			}
			files = append(files, f)
			if bar != nil {
				sources[name] = bar.NewProxyReader(f)
			} else {
				sources[name] = f
			}
		}

		opts := service.UploadOptions{Message: uploadMessage, Receiver: uploadReceiver}
		if err := browser.ExecuteUpload(cmd.Context(), plan, sources, opts); err != nil {
			return err
		}

		sent := len(plan.Outgoing())
		skipped := len(names) - sent
		if skipped > 0 {
			fmt.Printf("Uploaded %d file(s), skipped %d\n", sent, skipped)
		} else {
			fmt.Printf("Uploaded %d file(s)\n", sent)
		}
		return nil
	},
}

// chooseResolution maps the flags to a resolution, or prompts
func chooseResolution(plan *conflict.Plan, overwrite, keepBoth, skip bool) (domain.Resolution, error) {
	set := 0
	for _, b := range []bool{overwrite, keepBoth, skip} {
		if b {
			set++
		}
	}
	if set > 1 {
		return "", fmt.Errorf("--overwrite, --keep-both and --skip are mutually exclusive")
	}
	switch {
	case overwrite:
		return domain.ResolutionOverwrite, nil
	case keepBoth:
		return domain.ResolutionKeepBoth, nil
	case skip:
		return domain.ResolutionSkip, nil
	}

	conflicts := plan.Conflicts()
	fmt.Fprintf(os.Stderr, "%d file(s) already exist at the destination:\n", len(conflicts))
	for _, name := range conflicts {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
	fmt.Fprint(os.Stderr, "Apply to all: [o]verwrite, [k]eep both, [s]kip? ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "o", "overwrite":
		return domain.ResolutionOverwrite, nil
	case "k", "keep", "keep-both":
		return domain.ResolutionKeepBoth, nil
	case "s", "skip":
		return domain.ResolutionSkip, nil
	}
	return "", fmt.Errorf("unrecognized answer %q", strings.TrimSpace(answer))
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadOverwrite, "overwrite", false, "overwrite existing files")
	uploadCmd.Flags().BoolVar(&uploadKeepBoth, "keep-both", false, "keep both; the server suffixes the new name")
	uploadCmd.Flags().BoolVar(&uploadSkip, "skip", false, "skip files that already exist")
	uploadCmd.Flags().StringVarP(&uploadMessage, "message", "m", "", "instruction message attached to the upload")
	uploadCmd.Flags().StringVarP(&uploadReceiver, "receiver", "r", "", "user the instruction message is addressed to")
	uploadCmd.Flags().BoolVar(&uploadNoBar, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(uploadCmd)
}
