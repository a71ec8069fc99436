// Package cmd implements the depotctl command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/depotctl/depotctl/internal/api"
	"github.com/depotctl/depotctl/internal/config"
	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/logger"
	"github.com/depotctl/depotctl/internal/service"
	"github.com/depotctl/depotctl/internal/state"
)

var (
	cfgFile    string
	serverFlag string
	verbose    bool

	cfg      *config.Config
	client   *api.Client
	stateMgr *state.Manager
)

var rootCmd = &cobra.Command{
	Use:   "depotctl",
	Short: "Command-line client for the depot file service",
	Long: `depotctl browses, uploads to and searches a depot server from the
terminal. It mirrors the web client's views: the Operation, Training and
Research containers plus the whole-depot overview.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml in ~/.config/depotctl)")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "depot server base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	if serverFlag != "" {
		// The loader reads DEPOTCTL_* from the environment, so the flag
		// also satisfies the no-config-file case
		os.Setenv("DEPOTCTL_SERVER_BASE_URL", serverFlag)
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	level := logger.ParseLevel(cfg.Log.Level)
	if verbose {
		level = logger.LevelDebug
	}
	logCfg := logger.Config{
		Level:   level,
		Format:  logger.ParseFormat(cfg.Log.Format),
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
	}
	if cfg.Log.File != "" {
		logCfg.File = logger.FileConfig{
			Enabled:    true,
			Path:       config.ExpandPath(cfg.Log.File),
			MaxSizeMB:  cfg.Log.MaxSize,
			MaxAgeDays: cfg.Log.MaxAge,
			MaxBackups: cfg.Log.Backups,
		}
	}
	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	client = api.New(cfg.Server.BaseURL, cfg.Server.Timeout)

	stateMgr, err = state.NewManager(config.ExpandPath(cfg.DataDir))
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}

	if session, err := stateMgr.LoadSession(); err == nil && session.Valid() {
		client.SetUsername(session.Username)
	}

	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if stateMgr != nil {
		stateMgr.Close()
	}
	logger.Shutdown()
	return nil
}

// currentSession returns the stored login identity or instructs the
// user to log in
func currentSession() (domain.Session, error) {
	session, err := stateMgr.LoadSession()
	if err != nil {
		return session, err
	}
	if !session.Valid() {
		return session, fmt.Errorf("not logged in; run \"depotctl login <username>\"")
	}
	return session, nil
}

// newBrowser builds a browser for the given container ("" = whole depot)
func newBrowser(container string) (*service.Browser, error) {
	session, err := currentSession()
	if err != nil {
		return nil, err
	}
	return service.NewBrowser(cfg, client, stateMgr, session, container)
}
