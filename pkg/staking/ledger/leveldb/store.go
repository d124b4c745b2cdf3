package leveldb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

type store struct {
	db *leveldb.DB
}

// New returns a new leveldb backed ledger.Store
//
// leveldb admits a single open transaction at a time, so transactions are
// fully serialized and never observe conflicts. Accounts are indexed by owner
// under owner/<owner>/<address>.
func New(db *leveldb.DB) ledger.Store {
	return &store{
		db: db,
	}
}

// Open opens, or creates, the leveldb database at path.
func Open(path string) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening leveldb at %s", path)
	}
	return db, nil
}

// ExecuteInTx implements ledger.Store.ExecuteInTx
func (s *store) ExecuteInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return errors.Wrap(err, "error opening leveldb transaction")
	}

	if err := fn(ctx, &transaction{tr: tr}); err != nil {
		tr.Discard()
		return err
	}

	if err := ctx.Err(); err != nil {
		tr.Discard()
		return err
	}

	return tr.Commit()
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Account, error) {
	value, err := s.db.Get(accountKey(address), nil)
	if err == leveldb.ErrNotFound {
		return nil, ledger.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}
	return unmarshalAccount(address, value)
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string) ([]*ledger.Account, error) {
	snapshot, err := s.db.GetSnapshot()
	if err != nil {
		return nil, errors.Wrap(err, "error opening leveldb snapshot")
	}
	defer snapshot.Release()

	iter := snapshot.NewIterator(util.BytesPrefix(ownerIndexPrefix(owner)), nil)
	defer iter.Release()

	var res []*ledger.Account
	for iter.Next() {
		address := addressFromOwnerIndexKey(owner, iter.Key())

		value, err := snapshot.Get(accountKey(address), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading indexed account %s", address)
		}

		account, err := unmarshalAccount(address, value)
		if err != nil {
			return nil, err
		}
		res = append(res, account)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}

type transaction struct {
	tr *leveldb.Transaction
}

// Get implements ledger.Tx.Get
func (t *transaction) Get(_ context.Context, address string) (*ledger.Account, error) {
	value, err := t.tr.Get(accountKey(address), nil)
	if err == leveldb.ErrNotFound {
		return nil, ledger.ErrAccountNotFound
	} else if err != nil {
		return nil, err
	}
	return unmarshalAccount(address, value)
}

// Create implements ledger.Tx.Create
func (t *transaction) Create(ctx context.Context, account *ledger.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	_, err := t.Get(ctx, account.Address)
	if err == nil {
		return ledger.ErrAccountAlreadyInitialized
	} else if err != ledger.ErrAccountNotFound {
		return err
	}

	deletedAt, err := t.tombstone(account.Address)
	if err != nil {
		return err
	}

	created := account.Clone()
	created.Version = deletedAt + 1
	if err := t.put(nil, &created); err != nil {
		return err
	}
	if err := t.tr.Delete(tombstoneKey(account.Address), nil); err != nil {
		return err
	}

	account.Version = created.Version
	return nil
}

// Update implements ledger.Tx.Update
func (t *transaction) Update(ctx context.Context, account *ledger.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	current, err := t.Get(ctx, account.Address)
	if err != nil {
		return err
	}

	if current.Version != account.Version {
		return ledger.ErrConflict
	}

	updated := account.Clone()
	updated.Version++
	updated.CreatedAt = current.CreatedAt
	if err := t.put(current, &updated); err != nil {
		return err
	}

	account.Version = updated.Version
	account.CreatedAt = updated.CreatedAt
	return nil
}

// Delete implements ledger.Tx.Delete
func (t *transaction) Delete(ctx context.Context, address string) error {
	current, err := t.Get(ctx, address)
	if err != nil {
		return err
	}

	if err := t.tr.Delete(ownerIndexKey(current.Owner, address), nil); err != nil {
		return err
	}
	if err := t.tr.Put(tombstoneKey(address), marshalVersion(current.Version), nil); err != nil {
		return err
	}
	return t.tr.Delete(accountKey(address), nil)
}

func (t *transaction) tombstone(address string) (uint64, error) {
	value, err := t.tr.Get(tombstoneKey(address), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return unmarshalVersion(value)
}

// put writes account and keeps the owner index in step with previous, the
// account it replaces, if any.
func (t *transaction) put(previous, account *ledger.Account) error {
	value, err := marshalAccount(account)
	if err != nil {
		return err
	}

	if previous != nil && previous.Owner != account.Owner {
		if err := t.tr.Delete(ownerIndexKey(previous.Owner, account.Address), nil); err != nil {
			return err
		}
	}
	if err := t.tr.Put(ownerIndexKey(account.Owner, account.Address), nil, nil); err != nil {
		return err
	}
	return t.tr.Put(accountKey(account.Address), value, nil)
}
