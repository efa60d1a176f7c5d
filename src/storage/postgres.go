package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"trading-backend/src/interfaces"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"

	_ "github.com/lib/pq"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config  *models.MConfig
	DB      *sql.DB
	Schema  string
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics

	quotes   *QuoteStore
	traders  *TraderStore
	accounts *AccountStore
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger, m *metrics.QuoteMetrics) (*PostgresDB, error) {
	schema := cfg.Storage.Schema
	if schema == "" {
		schema = "public"
	}
	if !identifierRegex.MatchString(schema) {
		return nil, fmt.Errorf("invalid postgres schema name %q", schema)
	}

	return &PostgresDB{
		Config:  cfg,
		Schema:  schema,
		Logger:  log,
		Metrics: m,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.quotes = NewQuoteStore(d.DB, DialectPostgres, d.quoteTable(), d.Logger, d.Metrics)
	d.traders = NewTraderStore(d.DB, DialectPostgres, d.table("trader"), d.Logger, d.Metrics)
	d.accounts = NewAccountStore(d.DB, DialectPostgres, d.table("account"), d.traders, d.Logger, d.Metrics)

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) quoteTable() string {
	return d.table("quote")
}

func (d *PostgresDB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, postgresQuoteDDL(d.quoteTable())); err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	if _, err := d.DB.ExecContext(ctx, postgresTraderDDL(d.table("trader"))); err != nil {
		return fmt.Errorf("failed to create trader: %w", err)
	}
	if _, err := d.DB.ExecContext(ctx, postgresAccountDDL(d.table("account"), d.table("trader"))); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// postgresQuoteDDL keeps every numeric column NOT NULL with a zero default.
// Prices are unconstrained NUMERIC so any decimal is stored exactly.
func postgresQuoteDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ticker VARCHAR(16) PRIMARY KEY,
			last_price NUMERIC NOT NULL DEFAULT 0,
			bid_price NUMERIC NOT NULL DEFAULT 0,
			bid_size BIGINT NOT NULL DEFAULT 0 CHECK (bid_size >= 0),
			ask_price NUMERIC NOT NULL DEFAULT 0,
			ask_size BIGINT NOT NULL DEFAULT 0 CHECK (ask_size >= 0)
		);
	`, table)
}

// -----------------------------------------------------------------------------

func postgresTraderDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			first_name VARCHAR NOT NULL,
			last_name VARCHAR NOT NULL,
			dob DATE NOT NULL,
			country VARCHAR NOT NULL DEFAULT '',
			email VARCHAR NOT NULL DEFAULT ''
		);
	`, table)
}

func postgresAccountDDL(table, traderTable string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			trader_id BIGINT NOT NULL UNIQUE REFERENCES %s (id),
			amount NUMERIC NOT NULL DEFAULT 0
		);
	`, table, traderTable)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Quotes() interfaces.IQuoteStore {
	return d.quotes
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Traders() interfaces.ITraderStore {
	return d.traders
}

func (d *PostgresDB) Accounts() interfaces.IAccountStore {
	return d.accounts
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
