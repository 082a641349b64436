// Package app wires configuration, storage and the report API client into a
// session manager shared by the web server and the terminal client.
package app

import (
	"database/sql"
	"fmt"

	"github.com/de-tools/wasteops/pkg/services/config"
	"github.com/de-tools/wasteops/pkg/services/reports"
	"github.com/de-tools/wasteops/pkg/services/session"
	"github.com/de-tools/wasteops/pkg/store/client"
	"github.com/de-tools/wasteops/pkg/store/sqlite"
	sqlitesession "github.com/de-tools/wasteops/pkg/store/sqlite/session"
)

type App struct {
	DB       *sql.DB
	Client   *client.Client
	Sessions *session.Manager
	Janitor  *session.Janitor
}

func New(cfg *config.Config) (*App, error) {
	db, err := sqlite.NewDB(sqlite.Settings{DbPath: cfg.Storage.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite instance: %w", err)
	}

	store, err := sqlitesession.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	apiClient, err := client.NewClient(client.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.Timeout,
		RetryMax: cfg.API.RetryMax,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create report api client: %w", err)
	}

	registry, err := reports.NewDefaultRegistry()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	manager, err := session.NewManager(store, registry, apiClient, cfg.PublicOrigin,
		session.WithViewOptions(reports.WithTimeout(cfg.API.Timeout)))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	janitor := session.NewJanitor(manager, store, session.JanitorConfig{
		SweepInterval: cfg.Session.SweepInterval,
		IdleTTL:       cfg.Session.IdleTTL,
		Retention:     cfg.Session.Retention,
	})

	return &App{DB: db, Client: apiClient, Sessions: manager, Janitor: janitor}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}
