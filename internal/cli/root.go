package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"git.sr.ht/~jakintosh/portal/internal/domain"
	"git.sr.ht/~jakintosh/portal/internal/kv"
	"git.sr.ht/~jakintosh/portal/internal/portals"
	"git.sr.ht/~jakintosh/portal/internal/settings"
	"git.sr.ht/~jakintosh/portal/internal/transport"
)

// App carries the resolved configuration shared by every command.
type App struct {
	ConfigPath string
	DataDir    string
	BaseURL    string
	Store      string
	StorePath  string
	LogLevel   string

	cfg    *settings.Config
	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "portal",
		Short:        "Link portal: categorised bookmarks served as a web page",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Serve the active portal on :8080
  portal serve

  # Check a document before importing it
  portal validate ~/Downloads/links.json

  # Switch portals
  portal portals add work --title "Work"
  portal portals use work
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config.yaml (default: user config dir, then .)")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", "", "Directory holding <portal>.json documents")
	cmd.PersistentFlags().StringVar(&app.BaseURL, "base-url", "", "Fetch documents from this URL instead of the data dir")
	cmd.PersistentFlags().StringVar(&app.Store, "store", "", "Config store driver (bolt|sqlite|memory)")
	cmd.PersistentFlags().StringVar(&app.StorePath, "store-path", "", "Config store file")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newPortalsCmd(app))

	return cmd
}

// setup loads the config file and applies flag overrides on top of it.
func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := settings.Load(app.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Data.Dir = app.DataDir
	}
	if flags.Changed("base-url") {
		cfg.Data.BaseURL = app.BaseURL
	}
	if flags.Changed("store") {
		cfg.ConfigStore.Driver = app.Store
	}
	if flags.Changed("store-path") {
		cfg.ConfigStore.Path = app.StorePath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = app.LogLevel
	}

	logger, err := settings.SetupLogger(&cfg.Logging)
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.logger = logger
	return nil
}

// withPortals opens the config store for the duration of fn.
func (app *App) withPortals(fn func(ps *portals.Store) error) error {
	store, err := kv.Open(app.cfg.ConfigStore.Driver, app.cfg.ConfigStore.Path)
	if err != nil {
		return fmt.Errorf("failed to open config store: %w", err)
	}
	defer store.Close()
	return fn(portals.New(store, app.logger))
}

// transports returns the document fetcher and the sink saves go to. The
// fetcher understands legacy multi-portal documents.
func (app *App) transports() (domain.Fetcher, domain.Sink, error) {
	dir, err := transport.NewDirTransport(app.cfg.Data.Dir, app.logger)
	if err != nil {
		return nil, nil, err
	}
	var next domain.Fetcher = dir
	if app.cfg.Data.BaseURL != "" {
		next = transport.NewHTTPTransport(app.cfg.Data.BaseURL)
	}
	return transport.Legacy{Next: next}, dir, nil
}
