package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the notification watcher in the foreground",
	Long: `Connect to the depot's websocket and print push events as they
arrive: new instructions addressed to you and uploads visible to you.
If the socket stays unreachable the watcher falls back to polling the
activity feed. Only one watcher runs per data directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := currentSession(); err != nil {
			return err
		}

		watcher, err := service.NewWatchService(cfg, client, stateMgr, printEvent)
		if err != nil {
			return err
		}

		if err := watcher.Start(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Watching for depot events (Ctrl-C to stop)")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		return watcher.Stop()
	},
}

var watchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a watcher is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher, err := service.NewWatchService(cfg, client, stateMgr, nil)
		if err != nil {
			return err
		}
		status := watcher.Status()
		if !status.Running {
			fmt.Println("No watcher running")
			return nil
		}
		fmt.Printf("Watcher running (PID %d)\n", status.PID)
		return nil
	},
}

var watchStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a watcher running in another process",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher, err := service.NewWatchService(cfg, client, stateMgr, nil)
		if err != nil {
			return err
		}
		if err := watcher.StopRemote(); err != nil {
			return err
		}
		fmt.Println("Watcher stopped")
		return nil
	},
}

func printEvent(e domain.Event) {
	switch e.Type {
	case domain.EventNewInstruction:
		fmt.Printf("instruction from %s: %s\n", e.Sender, e.Message)
	case domain.EventFileUploaded:
		fmt.Printf("%s uploaded %s to %s\n", e.Sender, e.Filename, e.Directory)
	}
}

func init() {
	watchCmd.AddCommand(watchStatusCmd, watchStopCmd)
	rootCmd.AddCommand(watchCmd)
}
