package ledger

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound           = errors.New("ledger account not found")
	ErrAccountAlreadyInitialized = errors.New("ledger account already initialized")
	ErrInsufficientFunds         = errors.New("insufficient lamports")
	ErrConflict                  = errors.New("ledger transaction conflict")
	ErrInvalidAccountOwner       = errors.New("invalid ledger account owner")
	ErrInvalidAccountData        = errors.New("invalid ledger account data")
)

// Store is the account storage substrate. All mutations happen through a
// transaction, and a transaction either commits every write it made or none.
//
// Transactions that touch the same address are serialized. When two of them
// race, at most one commits and the rest fail with ErrConflict.
type Store interface {
	// ExecuteInTx runs fn within a single transaction. The transaction commits
	// when fn returns nil, and is discarded otherwise.
	ExecuteInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Get gets the committed state of an account
	Get(ctx context.Context, address string) (*Account, error)

	// GetAllByOwner gets all committed accounts owned by a program, ordered by
	// address
	GetAllByOwner(ctx context.Context, owner string) ([]*Account, error)
}

// Tx is the view of the ledger from within a transaction. Reads observe the
// transaction's own writes.
type Tx interface {
	// Get gets an account
	Get(ctx context.Context, address string) (*Account, error)

	// Create creates a new account. Fresh addresses start at version 1, and a
	// recreated address continues past the version it was deleted at, so
	// copies of the old account never match. ErrAccountAlreadyInitialized is
	// returned if the address is in use.
	Create(ctx context.Context, account *Account) error

	// Update writes the account, provided its Version matches the current one.
	// On success the provided account's Version is incremented.
	Update(ctx context.Context, account *Account) error

	// Delete erases an account
	Delete(ctx context.Context, address string) error
}
