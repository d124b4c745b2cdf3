package program

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	spltoken "github.com/code-payments/staking-server/pkg/solana/token"
	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/ledger/memory"
	"github.com/code-payments/staking-server/pkg/staking/pda"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

const defaultAirdrop = 1_000_000_000

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	ctx     context.Context
	store   ledger.Store
	program *Program
	clock   *testClock
	admin   *common.Account

	// Signs for the NFT mints handed out to test users
	minter *pda.Deriver
}

func defaultConfigArgs() *InitializeConfigArgs {
	return &InitializeConfigArgs{
		PointsPerStake: 10,
		MaxStake:       5,
		FreezePeriod:   2,
	}
}

func setup(t *testing.T, args *InitializeConfigArgs) *testEnv {
	return setupWithStore(t, memory.New(), args)
}

func setupWithStore(t *testing.T, store ledger.Store, args *InitializeConfigArgs) *testEnv {
	programAccount, err := common.NewRandomAccount()
	require.NoError(t, err)

	minterAccount, err := common.NewRandomAccount()
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)}

	env := &testEnv{
		ctx:     context.Background(),
		store:   store,
		program: New(store, programAccount, clock.Now),
		clock:   clock,
		admin:   newWallet(t),
		minter:  pda.NewDeriver(minterAccount),
	}
	env.airdrop(t, env.admin)

	if args != nil {
		_, err = env.program.InitializeConfig(env.ctx, env.admin, args)
		require.NoError(t, err)
	}
	return env
}

func newWallet(t *testing.T) *common.Account {
	wallet, err := common.NewRandomAccount()
	require.NoError(t, err)
	return wallet
}

func (e *testEnv) airdrop(t *testing.T, wallet *common.Account) {
	require.NoError(t, e.store.ExecuteInTx(e.ctx, func(ctx context.Context, tx ledger.Tx) error {
		return ledger.Airdrop(ctx, tx, wallet.PublicKey().ToBase58(), defaultAirdrop)
	}))
}

// newUser funds a wallet and initializes its points account.
func (e *testEnv) newUser(t *testing.T) *common.Account {
	owner := newWallet(t)
	e.airdrop(t, owner)

	_, err := e.program.InitializeUser(e.ctx, owner)
	require.NoError(t, err)
	return owner
}

// newNft mints a single indivisible token into owner's associated account.
func (e *testEnv) newNft(t *testing.T, owner *common.Account) ed25519.PublicKey {
	return e.newToken(t, owner, 0, 1)
}

func (e *testEnv) newToken(t *testing.T, owner *common.Account, decimals uint8, supply uint64) ed25519.PublicKey {
	mint := newWallet(t).PublicKey().ToBytes()
	authority, err := e.minter.Derive([]byte("mint"), mint)
	require.NoError(t, err)

	require.NoError(t, e.store.ExecuteInTx(e.ctx, func(ctx context.Context, tx ledger.Tx) error {
		payer := e.admin.PublicKey().ToBytes()
		if _, err := token.InitializeMint(ctx, tx, payer, mint, decimals, authority.PublicKey(), authority.PublicKey()); err != nil {
			return err
		}

		holding, err := token.CreateAssociatedAccount(ctx, tx, payer, owner.PublicKey().ToBytes(), mint)
		if err != nil {
			return err
		}
		return token.MintTo(ctx, tx, mint, holding, authority, supply)
	}))
	return mint
}

func (e *testEnv) getHoldingAddress(t *testing.T, owner *common.Account, mint ed25519.PublicKey) ed25519.PublicKey {
	address, err := spltoken.GetAssociatedAccount(owner.PublicKey().ToBytes(), mint)
	require.NoError(t, err)
	return address
}

func (e *testEnv) getHolding(t *testing.T, owner *common.Account, mint ed25519.PublicKey) *spltoken.Account {
	address := e.getHoldingAddress(t, owner, mint)

	var account *spltoken.Account
	require.NoError(t, e.store.ExecuteInTx(e.ctx, func(ctx context.Context, tx ledger.Tx) (err error) {
		account, err = token.GetAccount(ctx, tx, address)
		return err
	}))
	return account
}

func (e *testEnv) getUser(t *testing.T, owner *common.Account) (points uint32, staked uint8, submissions uint16) {
	user, err := e.program.GetUserAccount(e.ctx, owner)
	require.NoError(t, err)
	return user.Points, user.AmountStaked, user.NumOfSubmissions
}

func (e *testEnv) getRewardBalance(t *testing.T, owner *common.Account) uint64 {
	balance, err := e.program.GetRewardBalance(e.ctx, owner)
	require.NoError(t, err)
	return balance
}

func (e *testEnv) getLamports(t *testing.T, address string) uint64 {
	account, err := e.store.Get(e.ctx, address)
	require.NoError(t, err)
	return account.Lamports
}

func (e *testEnv) stakeAddress(t *testing.T, mint ed25519.PublicKey) string {
	address, err := e.program.stakeAddress(mint)
	require.NoError(t, err)
	return base58.Encode(address.PublicKey())
}

const day = 24 * time.Hour

// faultyStore fails any transaction that writes to a chosen address.
type faultyStore struct {
	ledger.Store

	mu      sync.Mutex
	address string
	err     error
}

func (s *faultyStore) failUpdatesTo(address string, err error) {
	s.mu.Lock()
	s.address = address
	s.err = err
	s.mu.Unlock()
}

func (s *faultyStore) ExecuteInTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return s.Store.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, store: s})
	})
}

type faultyTx struct {
	ledger.Tx
	store *faultyStore
}

func (t *faultyTx) Update(ctx context.Context, account *ledger.Account) error {
	t.store.mu.Lock()
	address, err := t.store.address, t.store.err
	t.store.mu.Unlock()

	if account.Address == address {
		return err
	}
	return t.Tx.Update(ctx, account)
}
