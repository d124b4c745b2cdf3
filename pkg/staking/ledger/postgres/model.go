package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/staking-server/pkg/database/postgres"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

const (
	tableName          = "staking__core_ledgeraccount"
	tombstoneTableName = "staking__core_ledgertombstone"

	allColumns = `address, owner, lamports, data, version, last_updated_at, created_at`
)

type model struct {
	Address string `db:"address"`
	Owner   string `db:"owner"`

	Lamports int64  `db:"lamports"`
	Data     []byte `db:"data"`

	Version int64 `db:"version"`

	LastUpdatedAt time.Time `db:"last_updated_at"`
	CreatedAt     time.Time `db:"created_at"`
}

func toModel(obj *ledger.Account) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Address: obj.Address,
		Owner:   obj.Owner,

		Lamports: int64(obj.Lamports),
		Data:     data,

		Version: int64(obj.Version),

		LastUpdatedAt: obj.LastUpdatedAt.UTC(),
		CreatedAt:     obj.CreatedAt.UTC(),
	}, nil
}

func fromModel(obj *model) *ledger.Account {
	var data []byte
	if len(obj.Data) > 0 {
		data = obj.Data
	}

	return &ledger.Account{
		Address: obj.Address,
		Owner:   obj.Owner,

		Lamports: uint64(obj.Lamports),
		Data:     data,

		Version: uint64(obj.Version),

		LastUpdatedAt: obj.LastUpdatedAt,
		CreatedAt:     obj.CreatedAt,
	}
}

func (m *model) dbCreate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		// ON CONFLICT keeps the transaction usable when the address is taken.
		// Recreated addresses continue from their tombstone version.
		query := `INSERT INTO ` + tableName + `
			(` + allColumns + `)
			VALUES ($1, $2, $3, $4, COALESCE((SELECT version FROM ` + tombstoneTableName + ` WHERE address = $1), 0) + 1, $5, $6)
			ON CONFLICT (address) DO NOTHING
			RETURNING version
		`

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.LastUpdatedAt,
			m.CreatedAt,
		).Scan(&m.Version)
		if pgutil.IsNoRows(err) {
			return ledger.ErrAccountAlreadyInitialized
		} else if err != nil {
			return pgutil.CheckConflict(err, ledger.ErrConflict)
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM `+tombstoneTableName+` WHERE address = $1`, m.Address)
		return pgutil.CheckConflict(err, ledger.ErrConflict)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET owner = $2, lamports = $3, data = $4, version = version + 1, last_updated_at = $5
			WHERE address = $1 AND version = $6
			RETURNING ` + allColumns

		updated := &model{}
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.LastUpdatedAt,
			m.Version,
		).StructScan(updated)
		if pgutil.IsNoRows(err) {
			if _, err := dbGetInTx(ctx, tx, m.Address); err != nil {
				return err
			}
			return ledger.ErrConflict
		} else if err != nil {
			return pgutil.CheckConflict(err, ledger.ErrConflict)
		}

		*m = *updated
		return nil
	})
}

func dbDelete(ctx context.Context, db *sqlx.DB, address string) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		query := `DELETE FROM ` + tableName + `
			WHERE address = $1
			RETURNING version
		`

		var version int64
		err := tx.QueryRowxContext(ctx, query, address).Scan(&version)
		if err != nil {
			err = pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
			return pgutil.CheckConflict(err, ledger.ErrConflict)
		}

		query = `INSERT INTO ` + tombstoneTableName + `
			(address, version)
			VALUES ($1, $2)
			ON CONFLICT (address) DO UPDATE SET version = EXCLUDED.version
		`

		_, err = tx.ExecContext(ctx, query, address, version)
		return pgutil.CheckConflict(err, ledger.ErrConflict)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res *model
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		var err error
		res, err = dbGetInTx(ctx, tx, address)
		return err
	})
	return res, err
}

func dbGetInTx(ctx context.Context, tx *sqlx.Tx, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
	`

	err := tx.QueryRowxContext(ctx, query, address).StructScan(res)
	if err != nil {
		err = pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
		return nil, pgutil.CheckConflict(err, ledger.ErrConflict)
	}
	return res, nil
}

func dbGetCommitted(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.QueryRowxContext(ctx, query, address).StructScan(res)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner string) ([]*model, error) {
	var res []*model

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE owner = $1
		ORDER BY address ASC
	`

	err := db.SelectContext(ctx, &res, query, owner)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}
