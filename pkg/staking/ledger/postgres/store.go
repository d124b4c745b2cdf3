package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/staking-server/pkg/database/postgres"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres ledger.Store
//
// Each ledger transaction is a serializable postgres transaction, so
// concurrent writers to the same address surface as ledger.ErrConflict.
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// ExecuteInTx implements ledger.Store.ExecuteInTx
func (s *store) ExecuteInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	err := pgutil.ExecuteTxWithinCtx(ctx, s.db, sql.LevelSerializable, func(ctx context.Context) error {
		return fn(ctx, &transaction{db: s.db})
	})
	return pgutil.CheckConflict(err, ledger.ErrConflict)
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Account, error) {
	model, err := dbGetCommitted(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string) ([]*ledger.Account, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}

	res := make([]*ledger.Account, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// transaction issues every statement through the postgres transaction carried
// by the context it's handed.
type transaction struct {
	db *sqlx.DB
}

// Get implements ledger.Tx.Get
func (t *transaction) Get(ctx context.Context, address string) (*ledger.Account, error) {
	model, err := dbGet(ctx, t.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// Create implements ledger.Tx.Create
func (t *transaction) Create(ctx context.Context, account *ledger.Account) error {
	model, err := toModel(account)
	if err != nil {
		return err
	}

	if err := model.dbCreate(ctx, t.db); err != nil {
		return err
	}

	account.Version = uint64(model.Version)
	return nil
}

// Update implements ledger.Tx.Update
func (t *transaction) Update(ctx context.Context, account *ledger.Account) error {
	model, err := toModel(account)
	if err != nil {
		return err
	}

	if err := model.dbUpdate(ctx, t.db); err != nil {
		return err
	}

	account.Version = uint64(model.Version)
	account.CreatedAt = model.CreatedAt
	return nil
}

// Delete implements ledger.Tx.Delete
func (t *transaction) Delete(ctx context.Context, address string) error {
	return dbDelete(ctx, t.db, address)
}
