package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb"
	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/core/nav"
)

var (
	downloadOutput string
	downloadFolder bool
	downloadNoBar  bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <depot-path>",
	Short: "Download a file or folder archive",
	Long: `Download a depot file to the local directory. With --folder the path
names a directory and the server streams it as a zip archive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}

		remote := nav.Normalize(args[0])

		var (
			body io.ReadCloser
			size int64
			err  error
			name string
		)
		if downloadFolder {
			body, size, err = client.DownloadFolder(cmd.Context(), remote)
			name = filepath.Base(remote) + ".zip"
		} else {
			dir, file := nav.Up(remote), filepath.Base(remote)
			if dir == remote {
				return fmt.Errorf("%s does not name a file inside a directory", remote)
			}
			body, size, err = client.Download(cmd.Context(), dir, file)
			name = file
		}
		if err != nil {
			return err
		}
		defer body.Close()

		if downloadOutput != "" {
			name = downloadOutput
		}

		out, err := os.Create(name)
		if err != nil {
			return err
		}
		defer out.Close()

		src := io.Reader(body)
		if !downloadNoBar && size > 0 {
			bar := pb.New64(size).SetUnits(pb.U_BYTES)
			bar.Start()
			defer bar.Finish()
			src = bar.NewProxyReader(body)
		}

		written, err := io.Copy(out, src)
		if err != nil {
			os.Remove(name)
			return fmt.Errorf("download failed: %w", err)
		}

		fmt.Printf("Saved %s (%d bytes)\n", name, written)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <depot-path>",
	Short: "Stream a file's content to stdout",
	Long: `Stream a depot file to stdout without saving it, the CLI counterpart
of the in-browser preview. Pipe it through a pager for large files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}

		remote := nav.Normalize(args[0])
		dir, file := nav.Up(remote), filepath.Base(remote)
		if dir == remote {
			return fmt.Errorf("%s does not name a file inside a directory", remote)
		}

		body, _, err := client.Preview(cmd.Context(), dir, file)
		if err != nil {
			return err
		}
		defer body.Close()

		_, err = io.Copy(os.Stdout, body)
		return err
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "local file name (default: the remote name)")
	downloadCmd.Flags().BoolVar(&downloadFolder, "folder", false, "download a directory as a zip archive")
	downloadCmd.Flags().BoolVar(&downloadNoBar, "no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(downloadCmd, previewCmd)
}
