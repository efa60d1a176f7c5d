package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"trading-backend/src/helpers"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"
)

// TraderStore persists traders. Ids come from the database on insert.
type TraderStore struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics

	selectOneSQL string
	insertSQL    string
	countSQL     string
}

// -----------------------------------------------------------------------------

func NewTraderStore(db *sql.DB, dialect Dialect, table string, log *logger.Logger, m *metrics.QuoteMetrics) *TraderStore {
	if log == nil {
		log = logger.NewNop("TraderStore")
	}
	if m == nil {
		m = metrics.NewQuoteMetrics(nil)
	}

	return &TraderStore{
		DB:      db,
		Dialect: dialect,
		Table:   table,
		Logger:  log,
		Metrics: m,

		selectOneSQL: dialect.Rebind(fmt.Sprintf(
			`SELECT id, first_name, last_name, dob, country, email FROM %s WHERE id = ?`, table)),
		insertSQL: dialect.Rebind(fmt.Sprintf(
			`INSERT INTO %s (first_name, last_name, dob, country, email) VALUES (?, ?, ?, ?, ?) RETURNING id`, table)),
		countSQL: fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table),
	}
}

// -----------------------------------------------------------------------------

func (s *TraderStore) Save(ctx context.Context, trader models.MTrader) (models.MTrader, error) {
	if strings.TrimSpace(trader.FirstName) == "" || strings.TrimSpace(trader.LastName) == "" {
		return models.MTrader{}, helpers.NewInvalidArgument("trader", "first and last name are required")
	}

	s.count("insert")
	var id int64
	err := s.DB.QueryRowContext(ctx, s.insertSQL,
		trader.FirstName, trader.LastName, formatDate(trader.Dob), trader.Country, trader.Email).Scan(&id)
	if err != nil {
		return models.MTrader{}, &helpers.PersistenceError{Op: "insert trader", Expected: 1, Cause: err}
	}

	trader.ID = id
	trader.Dob = dateOf(trader.Dob)
	s.Logger.Debug("TraderStore: insert trader %d", id)
	return trader, nil
}

// -----------------------------------------------------------------------------

func (s *TraderStore) FindByID(ctx context.Context, id int64) (models.MTrader, bool, error) {
	return s.findByID(ctx, s.DB, id)
}

func (s *TraderStore) findByID(ctx context.Context, q queryer, id int64) (models.MTrader, bool, error) {
	s.count("select")

	var (
		trader models.MTrader
		dob    any
	)
	err := q.QueryRowContext(ctx, s.selectOneSQL, id).Scan(
		&trader.ID, &trader.FirstName, &trader.LastName, &dob, &trader.Country, &trader.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MTrader{}, false, nil
	}
	if err != nil {
		return models.MTrader{}, false, helpers.NewDatabaseError(fmt.Sprintf("find trader %d", id), err)
	}

	if trader.Dob, err = parseDate(dob); err != nil {
		return models.MTrader{}, false, helpers.NewDatabaseError(fmt.Sprintf("decode dob of trader %d", id), err)
	}
	return trader, true, nil
}

// -----------------------------------------------------------------------------

func (s *TraderStore) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok, err := s.findByID(ctx, s.DB, id)
	return ok, err
}

// -----------------------------------------------------------------------------

func (s *TraderStore) Count(ctx context.Context) (int64, error) {
	s.count("select")

	var n int64
	if err := s.DB.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, helpers.NewDatabaseError("count traders", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (s *TraderStore) count(op string) {
	s.Metrics.AccountStatements.WithLabelValues(op).Inc()
}

// dateOf drops the clock part of t
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// parseDate accepts a SQLite TEXT date or a Postgres DATE
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return dateOf(d), nil
	case string:
		return time.Parse(time.DateOnly, d)
	case []byte:
		return time.Parse(time.DateOnly, string(d))
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", v)
	}
}
