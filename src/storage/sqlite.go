package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"

	_ "modernc.org/sqlite"
)

const sqliteMemory = ":memory:"

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config  *models.MConfig
	DB      *sql.DB
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics

	quotes   *QuoteStore
	traders  *TraderStore
	accounts *AccountStore
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger, m *metrics.QuoteMetrics) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config:  cfg,
		Logger:  log,
		Metrics: m,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath

	if dsn != sqliteMemory {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if dsn != sqliteMemory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
			d.Logger.Warning("Failed to set WAL mode: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.quotes = NewQuoteStore(d.DB, DialectSQLite, "quote", d.Logger, d.Metrics)
	d.traders = NewTraderStore(d.DB, DialectSQLite, "trader", d.Logger, d.Metrics)
	d.accounts = NewAccountStore(d.DB, DialectSQLite, "account", d.traders, d.Logger, d.Metrics)

	d.Logger.Info("SQLiteDB initialized successfully (Path: %s)", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables(ctx context.Context) error {
	// Prices and amounts are TEXT: NUMERIC affinity would coerce them to REAL and lose digits
	tables := []struct {
		name string
		ddl  string
	}{
		{"quote", `
			CREATE TABLE IF NOT EXISTS quote (
				ticker TEXT PRIMARY KEY NOT NULL,
				last_price TEXT NOT NULL DEFAULT '0',
				bid_price TEXT NOT NULL DEFAULT '0',
				bid_size INTEGER NOT NULL DEFAULT 0 CHECK (bid_size >= 0),
				ask_price TEXT NOT NULL DEFAULT '0',
				ask_size INTEGER NOT NULL DEFAULT 0 CHECK (ask_size >= 0)
			);
		`},
		{"trader", `
			CREATE TABLE IF NOT EXISTS trader (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				dob TEXT NOT NULL,
				country TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT ''
			);
		`},
		{"account", `
			CREATE TABLE IF NOT EXISTS account (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				trader_id INTEGER NOT NULL UNIQUE REFERENCES trader(id),
				amount TEXT NOT NULL DEFAULT '0'
			);
		`},
	}

	for _, t := range tables {
		if _, err := d.DB.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.name, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Quotes() interfaces.IQuoteStore {
	return d.quotes
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Traders() interfaces.ITraderStore {
	return d.traders
}

func (d *SQLiteDB) Accounts() interfaces.IAccountStore {
	return d.accounts
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
