package memory

import (
	"context"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

type store struct {
	mu       sync.Mutex
	accounts *treemap.Map // address -> *ledger.Account

	// Last version of every deleted address, so a recreated account continues
	// past it instead of restarting at 1.
	tombstones map[string]uint64
}

// New returns a new in memory ledger.Store
//
// Transactions run optimistically against committed state and are validated
// at commit time. A transaction whose reads were invalidated by another commit
// fails with ledger.ErrConflict.
func New() ledger.Store {
	return &store{
		accounts:   treemap.NewWithStringComparator(),
		tombstones: make(map[string]uint64),
	}
}

// ExecuteInTx implements ledger.Store.ExecuteInTx
func (s *store) ExecuteInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx := &transaction{
		store:     s,
		reads:     make(map[string]observation),
		writes:    make(map[string]*ledger.Account),
		deletedAt: make(map[string]uint64),
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return tx.commit()
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(address)
	if item == nil {
		return nil, ledger.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByOwner implements ledger.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string) ([]*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*ledger.Account
	it := s.accounts.Iterator()
	for it.Next() {
		item := it.Value().(*ledger.Account)
		if item.Owner != owner {
			continue
		}

		cloned := item.Clone()
		res = append(res, &cloned)
	}

	if len(res) == 0 {
		return nil, ledger.ErrAccountNotFound
	}
	return res, nil
}

func (s *store) find(address string) *ledger.Account {
	value, ok := s.accounts.Get(address)
	if !ok {
		return nil
	}
	return value.(*ledger.Account)
}

// observe returns the committed account at address, if any, and the address'
// current version. Deleted addresses report their tombstone version.
func (s *store) observe(address string) observation {
	if item := s.find(address); item != nil {
		cloned := item.Clone()
		return observation{account: &cloned, version: item.Version}
	}
	return observation{version: s.tombstones[address]}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts.Clear()
	s.tombstones = make(map[string]uint64)
}

type observation struct {
	account *ledger.Account // nil when the address was empty
	version uint64
}

type transaction struct {
	store *store

	// Committed state as first observed by this transaction
	reads map[string]observation

	// Pending writes, nil for deletions.
	writes map[string]*ledger.Account

	// Version of accounts deleted within this transaction
	deletedAt map[string]uint64
}

func (t *transaction) view(address string) *ledger.Account {
	if pending, ok := t.writes[address]; ok {
		return pending
	}

	if observed, ok := t.reads[address]; ok {
		return observed.account
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	observed := t.store.observe(address)
	t.reads[address] = observed
	return observed.account
}

// Get implements ledger.Tx.Get
func (t *transaction) Get(_ context.Context, address string) (*ledger.Account, error) {
	item := t.view(address)
	if item == nil {
		return nil, ledger.ErrAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// Create implements ledger.Tx.Create
func (t *transaction) Create(_ context.Context, account *ledger.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	if t.view(account.Address) != nil {
		return ledger.ErrAccountAlreadyInitialized
	}

	floor, ok := t.deletedAt[account.Address]
	if !ok {
		floor = t.reads[account.Address].version
	}

	account.Version = floor + 1
	cloned := account.Clone()
	t.writes[account.Address] = &cloned
	return nil
}

// Update implements ledger.Tx.Update
func (t *transaction) Update(_ context.Context, account *ledger.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	current := t.view(account.Address)
	if current == nil {
		return ledger.ErrAccountNotFound
	}

	if current.Version != account.Version {
		return ledger.ErrConflict
	}

	account.Version++
	account.CreatedAt = current.CreatedAt
	cloned := account.Clone()
	t.writes[account.Address] = &cloned
	return nil
}

// Delete implements ledger.Tx.Delete
func (t *transaction) Delete(_ context.Context, address string) error {
	current := t.view(address)
	if current == nil {
		return ledger.ErrAccountNotFound
	}

	t.deletedAt[address] = current.Version
	t.writes[address] = nil
	return nil
}

func (t *transaction) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for address, observed := range t.reads {
		current := t.store.observe(address)
		if (observed.account == nil) != (current.account == nil) || observed.version != current.version {
			return ledger.ErrConflict
		}
	}

	for address, pending := range t.writes {
		if pending == nil {
			t.store.accounts.Remove(address)
			t.store.tombstones[address] = t.deletedAt[address]
			continue
		}
		t.store.accounts.Put(address, pending)
		delete(t.store.tombstones, address)
	}

	return nil
}
