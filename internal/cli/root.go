// Package cli wires configuration, logging and the API client into the
// apilog-cli commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"apilog-cli/internal/client"
	"apilog-cli/internal/config"
	"apilog-cli/internal/logging"
	"apilog-cli/internal/tui"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	version string
	logs    io.Closer
}

// NewRootCmd builds the command tree. Running the root command starts the
// interactive viewer.
func NewRootCmd(version string) *cobra.Command {
	a := &app{v: viper.New(), version: version}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Browse API request logs and their database calls",
		Long: `apilog-cli reads the request log of an API server: a paged, filterable
grid of requests, a detail view per request and the database calls each
request made.

Without a subcommand it starts the interactive viewer.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logs != nil {
				a.logs.Close()
			}
		},
		RunE: a.runViewer,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is <user config dir>/apilog-cli/config.yaml or ./config.yaml)")
	pf.String("url", config.DefaultURL, "viewer URL (…/logs/ui) or API base URL")
	pf.Int("limit", config.DefaultLimit, "rows per page")
	pf.Duration("timeout", 30*time.Second, "HTTP timeout, 0 disables")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "log file (the viewer always logs to a file)")

	a.bind("url", pf.Lookup("url"))
	a.bind("limit", pf.Lookup("limit"))
	a.bind("http.timeout", pf.Lookup("timeout"))
	a.bind("log.level", pf.Lookup("log-level"))
	a.bind("log.file", pf.Lookup("log-file"))

	root.AddCommand(a.newListCmd(), a.newDBCmd(), a.newVersionCmd())
	return root
}

func (a *app) bind(key string, f *pflag.Flag) {
	if err := a.v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", f.Name, err))
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	interactive := !cmd.HasParent()
	logFile := cfg.Log.File
	if !interactive && !a.logFileConfigured(cmd) {
		logFile = ""
	}
	if interactive && logFile == "" {
		logFile = config.GetDefaultPaths().LogFile
	}

	closer, err := logging.Setup(cfg.Log.Level, logFile)
	if err != nil {
		return err
	}
	a.logs = closer

	if cfg.File != "" {
		log.Debugf("[cli] using config file %s", cfg.File)
	}
	return nil
}

// logFileConfigured reports whether log.file was set explicitly rather
// than left at its default.
func (a *app) logFileConfigured(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("log-file") {
		return true
	}
	if _, ok := os.LookupEnv(config.EnvPrefix + "_LOG_FILE"); ok {
		return true
	}
	return a.v.InConfig("log.file")
}

func (a *app) client() (*client.Client, error) {
	base, err := client.ResolveBase(a.cfg.URL)
	if err != nil {
		return nil, err
	}
	return client.New(base, a.cfg.HTTP.Timeout), nil
}

func (a *app) runViewer(cmd *cobra.Command, _ []string) error {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return errors.New("the interactive viewer needs a terminal; use 'apilog-cli list' to print logs")
	}

	c, err := a.client()
	if err != nil {
		return err
	}

	ui := tui.New(c, tui.Options{
		Version:       a.version,
		Base:          c.Base(),
		Limit:         a.cfg.Limit,
		DaySeparators: a.cfg.UI.DaySeparators,
		Clipboard:     tui.NewClipboard(a.cfg.Clipboard.OSC52),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ui.Run(ctx); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	log.Infof("[cli] viewer closed")
	return nil
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v.%s\n", config.AppName, a.version)
		},
	}
}
