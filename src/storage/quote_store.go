package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"trading-backend/src/helpers"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"
)

// Dialect selects the placeholder syntax of the backing database.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Rebind rewrites '?' placeholders into the dialect's syntax.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// -----------------------------------------------------------------------------

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// -----------------------------------------------------------------------------

// QuoteStore persists quotes in a single table keyed by ticker.
// Writes check existence first and then choose UPDATE or INSERT, so the same
// SQL runs on any backend regardless of native upsert support.
type QuoteStore struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics

	selectOneSQL string
	selectAllSQL string
	insertSQL    string
	updateSQL    string
	deleteOneSQL string
	deleteAllSQL string
	countSQL     string
}

// -----------------------------------------------------------------------------

func NewQuoteStore(db *sql.DB, dialect Dialect, table string, log *logger.Logger, m *metrics.QuoteMetrics) *QuoteStore {
	columns := "ticker, last_price, bid_price, bid_size, ask_price, ask_size"
	if log == nil {
		log = logger.NewNop("QuoteStore")
	}
	if m == nil {
		m = metrics.NewQuoteMetrics(nil)
	}

	return &QuoteStore{
		DB:      db,
		Dialect: dialect,
		Table:   table,
		Logger:  log,
		Metrics: m,

		selectOneSQL: dialect.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE ticker = ?`, columns, table)),
		selectAllSQL: fmt.Sprintf(`SELECT %s FROM %s ORDER BY ticker`, columns, table),
		insertSQL:    dialect.Rebind(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)`, table, columns)),
		updateSQL: dialect.Rebind(fmt.Sprintf(
			`UPDATE %s SET last_price = ?, bid_price = ?, bid_size = ?, ask_price = ?, ask_size = ? WHERE ticker = ?`, table)),
		deleteOneSQL: dialect.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE ticker = ?`, table)),
		deleteAllSQL: fmt.Sprintf(`DELETE FROM %s`, table),
		countSQL:     fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table),
	}
}

// -----------------------------------------------------------------------------

// FindByTicker looks up one quote. A missing row is reported as ok == false.
func (s *QuoteStore) FindByTicker(ctx context.Context, ticker string) (models.MQuote, bool, error) {
	return s.findByTicker(ctx, s.DB, ticker)
}

func (s *QuoteStore) findByTicker(ctx context.Context, q queryer, ticker string) (models.MQuote, bool, error) {
	s.count("select")

	var quote models.MQuote
	err := q.QueryRowContext(ctx, s.selectOneSQL, ticker).Scan(
		&quote.Ticker, &quote.LastPrice, &quote.BidPrice, &quote.BidSize, &quote.AskPrice, &quote.AskSize)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MQuote{}, false, nil
	}
	if err != nil {
		return models.MQuote{}, false, helpers.NewDatabaseError("find quote "+ticker, err)
	}
	return quote, true, nil
}

// -----------------------------------------------------------------------------

// FindAll returns every quote ordered by ticker
func (s *QuoteStore) FindAll(ctx context.Context) ([]models.MQuote, error) {
	s.count("select")

	rows, err := s.DB.QueryContext(ctx, s.selectAllSQL)
	if err != nil {
		return nil, helpers.NewDatabaseError("find all quotes", err)
	}
	defer rows.Close()

	quotes := make([]models.MQuote, 0)
	for rows.Next() {
		var quote models.MQuote
		if err := rows.Scan(&quote.Ticker, &quote.LastPrice, &quote.BidPrice, &quote.BidSize, &quote.AskPrice, &quote.AskSize); err != nil {
			return nil, helpers.NewDatabaseError("scan quote", err)
		}
		quotes = append(quotes, quote)
	}

	if err := rows.Err(); err != nil {
		return nil, helpers.NewDatabaseError("iterate quotes", err)
	}

	return quotes, nil
}

// -----------------------------------------------------------------------------

// Exists is a lookup, not an index probe
func (s *QuoteStore) Exists(ctx context.Context, ticker string) (bool, error) {
	_, ok, err := s.findByTicker(ctx, s.DB, ticker)
	return ok, err
}

func (s *QuoteStore) exists(ctx context.Context, q queryer, ticker string) (bool, error) {
	_, ok, err := s.findByTicker(ctx, q, ticker)
	return ok, err
}

// -----------------------------------------------------------------------------

// Upsert updates the five numeric fields when the ticker exists, inserts otherwise.
// The existence check and the write share one transaction.
func (s *QuoteStore) Upsert(ctx context.Context, quote models.MQuote) (models.MQuote, error) {
	if err := validateQuote("quote", quote); err != nil {
		return models.MQuote{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.MQuote{}, helpers.NewDatabaseError("begin upsert", err)
	}
	defer tx.Rollback()

	found, err := s.exists(ctx, tx, quote.Ticker)
	if err != nil {
		return models.MQuote{}, err
	}

	op, query, args := "insert", s.insertSQL, insertArgs(quote)
	if found {
		op, query, args = "update", s.updateSQL, updateArgs(quote)
	}

	s.count(op)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return models.MQuote{}, &helpers.PersistenceError{Op: op, Ticker: quote.Ticker, Expected: 1, Cause: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.MQuote{}, &helpers.PersistenceError{Op: op, Ticker: quote.Ticker, Expected: 1, Cause: err}
	}
	if n != 1 {
		return models.MQuote{}, &helpers.PersistenceError{Op: op, Ticker: quote.Ticker, Expected: 1, Actual: n}
	}

	if err := tx.Commit(); err != nil {
		return models.MQuote{}, &helpers.PersistenceError{Op: op, Ticker: quote.Ticker, Expected: 1, Actual: n, Cause: err}
	}

	s.Logger.Debug("QuoteStore: %s %s", op, quote.Ticker)
	return quote, nil
}

// -----------------------------------------------------------------------------

// UpsertBatch partitions quotes into inserts and updates and applies each
// partition as one batched statement inside a single transaction.
func (s *QuoteStore) UpsertBatch(ctx context.Context, quotes []models.MQuote) ([]models.MQuote, error) {
	for i, q := range quotes {
		if err := validateQuote(fmt.Sprintf("quotes[%d]", i), q); err != nil {
			return nil, err
		}
	}
	if len(quotes) == 0 {
		return []models.MQuote{}, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, helpers.NewDatabaseError("begin batch upsert", err)
	}
	defer tx.Rollback()

	var inserts, updates [][]any
	for _, q := range quotes {
		found, err := s.exists(ctx, tx, q.Ticker)
		if err != nil {
			return nil, err
		}
		if found {
			updates = append(updates, updateArgs(q))
		} else {
			inserts = append(inserts, insertArgs(q))
		}
	}

	inserted, err := s.execBatch(ctx, tx, "insert", s.insertSQL, inserts)
	if err != nil {
		return nil, err
	}
	updated, err := s.execBatch(ctx, tx, "update", s.updateSQL, updates)
	if err != nil {
		return nil, err
	}

	total := inserted + updated
	if total != int64(len(quotes)) {
		return nil, &helpers.PersistenceError{Op: "batch upsert", Expected: int64(len(quotes)), Actual: total}
	}

	if err := tx.Commit(); err != nil {
		return nil, &helpers.PersistenceError{Op: "batch upsert", Expected: int64(len(quotes)), Actual: total, Cause: err}
	}

	s.Logger.Info("QuoteStore: batch upsert of %d quotes (%d inserted, %d updated)", len(quotes), len(inserts), len(updates))

	out := make([]models.MQuote, len(quotes))
	copy(out, quotes)
	return out, nil
}

// -----------------------------------------------------------------------------

// execBatch runs one prepared statement for every argument row and returns the
// summed affected-row count. An empty batch is not sent.
func (s *QuoteStore) execBatch(ctx context.Context, q queryer, kind, query string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	s.Metrics.StoreBatches.WithLabelValues(kind).Inc()

	stmt, err := q.PrepareContext(ctx, query)
	if err != nil {
		return 0, &helpers.PersistenceError{Op: "batch " + kind, Expected: int64(len(rows)), Cause: err}
	}
	defer stmt.Close()

	var total int64
	for _, args := range rows {
		s.count(kind)
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return total, &helpers.PersistenceError{Op: "batch " + kind, Ticker: tickerOf(kind, args), Expected: int64(len(rows)), Actual: total, Cause: err}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, &helpers.PersistenceError{Op: "batch " + kind, Expected: int64(len(rows)), Actual: total, Cause: err}
		}
		total += n
	}

	return total, nil
}

// -----------------------------------------------------------------------------

// DeleteByTicker refuses to delete a ticker that is not stored
func (s *QuoteStore) DeleteByTicker(ctx context.Context, ticker string) error {
	found, err := s.Exists(ctx, ticker)
	if err != nil {
		return err
	}
	if !found {
		return helpers.NewInvalidArgument(ticker, "ticker is not stored")
	}

	s.count("delete")
	if _, err := s.DB.ExecContext(ctx, s.deleteOneSQL, ticker); err != nil {
		return helpers.NewDatabaseError("delete quote "+ticker, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *QuoteStore) DeleteAll(ctx context.Context) error {
	s.count("delete")
	if _, err := s.DB.ExecContext(ctx, s.deleteAllSQL); err != nil {
		return helpers.NewDatabaseError("delete all quotes", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *QuoteStore) Count(ctx context.Context) (int64, error) {
	s.count("select")

	var n int64
	if err := s.DB.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, helpers.NewDatabaseError("count quotes", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (s *QuoteStore) count(op string) {
	s.Metrics.StoreStatements.WithLabelValues(op).Inc()
}

// validateQuote rejects records the table constraints would refuse
func validateQuote(argument string, q models.MQuote) error {
	switch {
	case q.Ticker == "":
		return helpers.NewInvalidArgument(argument, "quote ticker cannot be empty")
	case q.BidSize < 0:
		return helpers.NewInvalidArgument(argument, fmt.Sprintf("bid size of %s cannot be negative", q.Ticker))
	case q.AskSize < 0:
		return helpers.NewInvalidArgument(argument, fmt.Sprintf("ask size of %s cannot be negative", q.Ticker))
	}
	return nil
}

func insertArgs(q models.MQuote) []any {
	return []any{q.Ticker, q.LastPrice, q.BidPrice, q.BidSize, q.AskPrice, q.AskSize}
}

func updateArgs(q models.MQuote) []any {
	return []any{q.LastPrice, q.BidPrice, q.BidSize, q.AskPrice, q.AskSize, q.Ticker}
}

// tickerOf extracts the ticker from an argument row built by insertArgs or updateArgs
func tickerOf(kind string, args []any) string {
	idx := 0
	if kind == "update" {
		idx = len(args) - 1
	}
	if t, ok := args[idx].(string); ok {
		return t
	}
	return ""
}
