package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/civic-dashboard/internal/app"
	"github.com/nhle/civic-dashboard/internal/cache"
	"github.com/nhle/civic-dashboard/internal/geo"
	"github.com/nhle/civic-dashboard/internal/store"
	appsync "github.com/nhle/civic-dashboard/internal/sync"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Short:   "Start the interactive dashboard",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// openStore opens the local snapshot database, creating its directory.
func openStore() (*store.SQLiteStore, error) {
	path := cfg.Storage.DBPath
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return store.NewSQLiteStore(path)
}

func runTUI() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	c := cache.New(log)
	defer c.Close()

	poller := appsync.New(st, client, client, c, appsync.Options{
		Interval: time.Duration(cfg.Display.PollIntervalSec) * time.Second,
		PageSize: cfg.Map.PageSize,
	}, log)
	defer poller.Stop()

	m := app.New(app.Deps{
		Config:  cfg,
		Client:  client,
		Cache:   c,
		Session: sess,
		Store:   st,
		Poller:  poller,
		Locator: geo.StaticLocator{Position: cfg.Map.Home},
		Log:     log,
	})

	log.WithField("api", client.BaseURL()).Info("starting dashboard")
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
