package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/lastorders/closeout/internal/common"
	"github.com/lastorders/closeout/internal/config"
	"github.com/lastorders/closeout/internal/engine"
	"github.com/lastorders/closeout/internal/storage"
)

// loadConfig builds the validated engine configuration from viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return cfg, nil
}

// openStorage opens (and migrates) the SQLite database configured under
// database.path.
func openStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" || dbPath == "closeout.db" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "closeout", "closeout.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("failed to open database %s", dbPath), err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, common.NewUserError("failed to migrate database", err)
	}

	return store, nil
}

// newEngine wires a full engine with storage attached.
func newEngine(ctx context.Context) (*engine.Engine, *storage.SQLiteStorage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return eng, store, nil
}

// parseShiftDate parses a --date flag value into a UTC shift date.
func parseShiftDate(s string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid date %q (expected 2006-01-02)", s), nil)
	}
	return date, nil
}
