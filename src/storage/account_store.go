package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"trading-backend/src/helpers"
	"trading-backend/src/logger"
	"trading-backend/src/metrics"
	"trading-backend/src/models"

	"github.com/shopspring/decimal"
)

// AccountStore persists cash accounts. A trader holds at most one account
// and only stored traders may open one.
type AccountStore struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
	Traders *TraderStore
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics

	selectByIDSQL     string
	selectByTraderSQL string
	insertSQL         string
	updateAmountSQL   string
	deleteByTraderSQL string
	countSQL          string
}

// -----------------------------------------------------------------------------

func NewAccountStore(db *sql.DB, dialect Dialect, table string, traders *TraderStore, log *logger.Logger, m *metrics.QuoteMetrics) *AccountStore {
	if log == nil {
		log = logger.NewNop("AccountStore")
	}
	if m == nil {
		m = metrics.NewQuoteMetrics(nil)
	}

	return &AccountStore{
		DB:      db,
		Dialect: dialect,
		Table:   table,
		Traders: traders,
		Logger:  log,
		Metrics: m,

		selectByIDSQL:     dialect.Rebind(fmt.Sprintf(`SELECT id, trader_id, amount FROM %s WHERE id = ?`, table)),
		selectByTraderSQL: dialect.Rebind(fmt.Sprintf(`SELECT id, trader_id, amount FROM %s WHERE trader_id = ?`, table)),
		insertSQL:         dialect.Rebind(fmt.Sprintf(`INSERT INTO %s (trader_id, amount) VALUES (?, ?) RETURNING id`, table)),
		updateAmountSQL:   dialect.Rebind(fmt.Sprintf(`UPDATE %s SET amount = ? WHERE id = ?`, table)),
		deleteByTraderSQL: dialect.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE trader_id = ?`, table)),
		countSQL:          fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table),
	}
}

// -----------------------------------------------------------------------------

// Save opens an account. The trader check, the duplicate check and the insert
// share one transaction.
func (s *AccountStore) Save(ctx context.Context, account models.MAccount) (models.MAccount, error) {
	traderArg := strconv.FormatInt(account.TraderID, 10)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.MAccount{}, helpers.NewDatabaseError("begin account insert", err)
	}
	defer tx.Rollback()

	_, found, err := s.Traders.findByID(ctx, tx, account.TraderID)
	if err != nil {
		return models.MAccount{}, err
	}
	if !found {
		return models.MAccount{}, helpers.NewInvalidArgument(traderArg, "trader is not stored")
	}

	_, held, err := s.find(ctx, tx, s.selectByTraderSQL, account.TraderID)
	if err != nil {
		return models.MAccount{}, err
	}
	if held {
		return models.MAccount{}, helpers.NewInvalidArgument(traderArg, "trader already holds an account")
	}

	s.count("insert")
	var id int64
	if err := tx.QueryRowContext(ctx, s.insertSQL, account.TraderID, account.Amount).Scan(&id); err != nil {
		return models.MAccount{}, &helpers.PersistenceError{Op: "insert account for trader " + traderArg, Expected: 1, Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return models.MAccount{}, &helpers.PersistenceError{Op: "insert account for trader " + traderArg, Expected: 1, Actual: 1, Cause: err}
	}

	account.ID = id
	s.Logger.Debug("AccountStore: insert account %d for trader %d", id, account.TraderID)
	return account, nil
}

// -----------------------------------------------------------------------------

func (s *AccountStore) FindByID(ctx context.Context, id int64) (models.MAccount, bool, error) {
	return s.find(ctx, s.DB, s.selectByIDSQL, id)
}

func (s *AccountStore) FindByTraderID(ctx context.Context, traderID int64) (models.MAccount, bool, error) {
	return s.find(ctx, s.DB, s.selectByTraderSQL, traderID)
}

func (s *AccountStore) ExistsByTraderID(ctx context.Context, traderID int64) (bool, error) {
	_, ok, err := s.FindByTraderID(ctx, traderID)
	return ok, err
}

func (s *AccountStore) find(ctx context.Context, q queryer, query string, key int64) (models.MAccount, bool, error) {
	s.count("select")

	var account models.MAccount
	err := q.QueryRowContext(ctx, query, key).Scan(&account.ID, &account.TraderID, &account.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MAccount{}, false, nil
	}
	if err != nil {
		return models.MAccount{}, false, helpers.NewDatabaseError(fmt.Sprintf("find account %d", key), err)
	}
	return account, true, nil
}

// -----------------------------------------------------------------------------

// UpdateAmountByID writes the new amount and reads the account back inside the
// same transaction. A row that does not hold amount afterwards fails the update.
func (s *AccountStore) UpdateAmountByID(ctx context.Context, id int64, amount decimal.Decimal) (models.MAccount, error) {
	op := fmt.Sprintf("update account %d", id)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.MAccount{}, helpers.NewDatabaseError("begin account update", err)
	}
	defer tx.Rollback()

	_, found, err := s.find(ctx, tx, s.selectByIDSQL, id)
	if err != nil {
		return models.MAccount{}, err
	}
	if !found {
		return models.MAccount{}, helpers.NewInvalidArgument(strconv.FormatInt(id, 10), "account is not stored")
	}

	s.count("update")
	res, err := tx.ExecContext(ctx, s.updateAmountSQL, amount, id)
	if err != nil {
		return models.MAccount{}, &helpers.PersistenceError{Op: op, Expected: 1, Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.MAccount{}, &helpers.PersistenceError{Op: op, Expected: 1, Cause: err}
	}
	if n != 1 {
		return models.MAccount{}, &helpers.PersistenceError{Op: op, Expected: 1, Actual: n}
	}

	updated, found, err := s.find(ctx, tx, s.selectByIDSQL, id)
	if err != nil {
		return models.MAccount{}, err
	}
	if !found || !updated.Amount.Equal(amount) {
		return models.MAccount{}, &helpers.PersistenceError{
			Op: op, Expected: 1, Actual: n,
			Cause: fmt.Errorf("amount reads back as %s, want %s", updated.Amount, amount),
		}
	}

	if err := tx.Commit(); err != nil {
		return models.MAccount{}, &helpers.PersistenceError{Op: op, Expected: 1, Actual: n, Cause: err}
	}
	return updated, nil
}

// -----------------------------------------------------------------------------

// DeleteByTraderID refuses a trader that holds no account
func (s *AccountStore) DeleteByTraderID(ctx context.Context, traderID int64) error {
	found, err := s.ExistsByTraderID(ctx, traderID)
	if err != nil {
		return err
	}
	if !found {
		return helpers.NewInvalidArgument(strconv.FormatInt(traderID, 10), "trader holds no account")
	}

	s.count("delete")
	if _, err := s.DB.ExecContext(ctx, s.deleteByTraderSQL, traderID); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("delete account of trader %d", traderID), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *AccountStore) Count(ctx context.Context) (int64, error) {
	s.count("select")

	var n int64
	if err := s.DB.QueryRowContext(ctx, s.countSQL).Scan(&n); err != nil {
		return 0, helpers.NewDatabaseError("count accounts", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (s *AccountStore) count(op string) {
	s.Metrics.AccountStatements.WithLabelValues(op).Inc()
}
