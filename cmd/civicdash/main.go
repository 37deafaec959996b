package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/civic-dashboard/internal/api"
	"github.com/nhle/civic-dashboard/internal/credential"
	"github.com/nhle/civic-dashboard/internal/model"
	"github.com/nhle/civic-dashboard/internal/session"
)

var (
	configPath string
	apiURL     string
	jsonOutput bool
	ephemeral  bool
	verbose    bool

	cfg     *model.AppConfig
	log     *logrus.Logger
	logFile *os.File
	sess    *session.Manager
	client  *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "civicdash",
	Short: "Terminal dashboard for the civic issue tracker",
	Long: `civicdash browses, reports and manages civic issues from the terminal.

Run without a subcommand to start the interactive dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: reading .env: %v\n", err)
		}

		c, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			c.API.BaseURL = apiURL
		}
		cfg = c

		log = newLogger(cfg.Log)

		var creds credential.Store
		if ephemeral {
			creds = credential.NewMemory()
		} else {
			creds = credential.NewKeyring(model.ConfigDir())
		}
		sess = session.New(creds, log)
		if err := sess.Initialize(); err != nil {
			return fmt.Errorf("loading credentials: %w", err)
		}
		client = api.NewClient(cfg.API, sess, log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep credentials in memory only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "session", Title: "Session:"},
		&cobra.Group{ID: "issues", Title: "Issues:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Session
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Issues
	rootCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(mapCmd)

	// System
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger writes to the configured log file so the dashboard screen is
// never drawn over. Logging is discarded when the file cannot be opened.
func newLogger(c model.LogConfig) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	l.SetOutput(io.Discard)
	if c.File == "" {
		return l
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return l
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return l
	}
	logFile = f
	l.SetOutput(f)
	return l
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
