package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/spegfinder/clearview/internal/model"
	"github.com/spegfinder/clearview/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "clearview.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// loadTaxonomy returns the configured synonym table, falling back to the
// built-in UK GAAP table.
func loadTaxonomy() (*model.Taxonomy, error) {
	if cfg.Taxonomy.Path == "" {
		return model.DefaultTaxonomy(), nil
	}
	tax, err := model.LoadTaxonomy(cfg.Taxonomy.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load taxonomy")
	}
	return tax, nil
}
