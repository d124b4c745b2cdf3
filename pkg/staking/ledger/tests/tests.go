package tests

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testAccountLifecycle,
		testRollbackOnError,
		testReadYourWrites,
		testCreateExisting,
		testStaleUpdate,
		testRecreatedAccount,
		testConcurrentUpdates,
		testGetAllByOwner,
		testSystemOperations,
	} {
		tf(t, s)
		teardown()
	}
}

func testAccountLifecycle(t *testing.T, s ledger.Store) {
	t.Run("testAccountLifecycle", func(t *testing.T) {
		ctx := context.Background()

		address := randomAddress(t)
		program := randomAddress(t)

		_, err := s.Get(ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		start := time.Now()
		time.Sleep(time.Millisecond)

		expected := &ledger.Account{
			Address:       address,
			Owner:         program,
			Lamports:      1234,
			Data:          []byte{1, 2, 3, 4},
			LastUpdatedAt: time.Now(),
			CreatedAt:     time.Now(),
		}
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, expected)
		}))
		assert.EqualValues(t, 1, expected.Version)

		actual, err := s.Get(ctx, address)
		require.NoError(t, err)
		require.NoError(t, actual.Validate())
		assertEquivalentAccounts(t, expected, actual)
		assert.True(t, actual.CreatedAt.After(start))

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			current, err := tx.Get(ctx, address)
			if err != nil {
				return err
			}

			current.Data = []byte{5, 6, 7, 8}
			current.Lamports = 4321
			current.LastUpdatedAt = time.Now()
			return tx.Update(ctx, current)
		}))

		actual, err = s.Get(ctx, address)
		require.NoError(t, err)
		assert.EqualValues(t, 2, actual.Version)
		assert.EqualValues(t, 4321, actual.Lamports)
		assert.Equal(t, []byte{5, 6, 7, 8}, actual.Data)
		assert.True(t, actual.LastUpdatedAt.After(actual.CreatedAt))

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Delete(ctx, address)
		}))

		_, err = s.Get(ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		err = s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Delete(ctx, address)
		})
		assert.Equal(t, ledger.ErrAccountNotFound, err)
	})
}

func testRollbackOnError(t *testing.T, s ledger.Store) {
	t.Run("testRollbackOnError", func(t *testing.T) {
		ctx := context.Background()

		existing := newAccount(t, randomAddress(t), 0)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, existing)
		}))

		created := newAccount(t, randomAddress(t), 0)
		errAbort := errors.New("abort")

		err := s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			if err := tx.Create(ctx, created); err != nil {
				return err
			}

			current, err := tx.Get(ctx, existing.Address)
			if err != nil {
				return err
			}
			current.Data = encodeCounter(42)
			if err := tx.Update(ctx, current); err != nil {
				return err
			}

			return errAbort
		})
		assert.Equal(t, errAbort, err)

		_, err = s.Get(ctx, created.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1, actual.Version)
		assert.EqualValues(t, 0, decodeCounter(actual.Data))
	})
}

func testReadYourWrites(t *testing.T, s ledger.Store) {
	t.Run("testReadYourWrites", func(t *testing.T) {
		ctx := context.Background()

		account := newAccount(t, randomAddress(t), 7)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			if err := tx.Create(ctx, account); err != nil {
				return err
			}

			actual, err := tx.Get(ctx, account.Address)
			require.NoError(t, err)
			assert.EqualValues(t, 7, decodeCounter(actual.Data))

			actual.Data = encodeCounter(8)
			require.NoError(t, tx.Update(ctx, actual))

			actual, err = tx.Get(ctx, account.Address)
			require.NoError(t, err)
			assert.EqualValues(t, 8, decodeCounter(actual.Data))

			require.NoError(t, tx.Delete(ctx, account.Address))
			_, err = tx.Get(ctx, account.Address)
			assert.Equal(t, ledger.ErrAccountNotFound, err)

			return tx.Create(ctx, newAccount(t, account.Address, 9))
		}))

		actual, err := s.Get(ctx, account.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 9, decodeCounter(actual.Data))
	})
}

func testCreateExisting(t *testing.T, s ledger.Store) {
	t.Run("testCreateExisting", func(t *testing.T) {
		ctx := context.Background()

		account := newAccount(t, randomAddress(t), 1)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, account)
		}))

		var createErr error
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			createErr = tx.Create(ctx, newAccount(t, account.Address, 2))

			// The transaction remains usable after a rejected create
			_, err := tx.Get(ctx, account.Address)
			return err
		}))
		assert.Equal(t, ledger.ErrAccountAlreadyInitialized, createErr)

		actual, err := s.Get(ctx, account.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1, decodeCounter(actual.Data))
	})
}

func testStaleUpdate(t *testing.T, s ledger.Store) {
	t.Run("testStaleUpdate", func(t *testing.T) {
		ctx := context.Background()

		account := newAccount(t, randomAddress(t), 1)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, account)
		}))

		err := s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			stale := account.Clone()
			stale.Version = 5
			stale.Data = encodeCounter(100)
			return tx.Update(ctx, &stale)
		})
		assert.Equal(t, ledger.ErrConflict, err)

		err = s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			missing := newAccount(t, randomAddress(t), 1)
			missing.Version = 1
			return tx.Update(ctx, missing)
		})
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, account.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1, decodeCounter(actual.Data))
	})
}

func testRecreatedAccount(t *testing.T, s ledger.Store) {
	t.Run("testRecreatedAccount", func(t *testing.T) {
		ctx := context.Background()

		account := newAccount(t, randomAddress(t), 1)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, account)
		}))
		firstIncarnation := account.Clone()

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			account.Data = encodeCounter(2)
			return tx.Update(ctx, account)
		}))
		lastIncarnation := account.Clone()
		require.EqualValues(t, 2, lastIncarnation.Version)

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Delete(ctx, account.Address)
		}))

		recreated := newAccount(t, account.Address, 7)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, recreated)
		}))
		assert.EqualValues(t, 3, recreated.Version)

		// Copies read before the delete never match the new account
		for _, stale := range []ledger.Account{firstIncarnation, lastIncarnation} {
			err := s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
				stale.Data = encodeCounter(100)
				return tx.Update(ctx, &stale)
			})
			assert.Equal(t, ledger.ErrConflict, err)
		}

		actual, err := s.Get(ctx, account.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 7, decodeCounter(actual.Data))
		assert.EqualValues(t, 3, actual.Version)
	})
}

func testConcurrentUpdates(t *testing.T, s ledger.Store) {
	t.Run("testConcurrentUpdates", func(t *testing.T) {
		ctx := context.Background()

		counter := newAccount(t, randomAddress(t), 0)
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return tx.Create(ctx, counter)
		}))

		var mu sync.Mutex
		var committed int

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
					current, err := tx.Get(ctx, counter.Address)
					if err != nil {
						return err
					}

					current.Data = encodeCounter(decodeCounter(current.Data) + 1)
					return tx.Update(ctx, current)
				})
				if err == nil {
					mu.Lock()
					committed++
					mu.Unlock()
					return
				}
				assert.Equal(t, ledger.ErrConflict, err)
			}()
		}
		wg.Wait()

		require.True(t, committed > 0)

		actual, err := s.Get(ctx, counter.Address)
		require.NoError(t, err)
		assert.EqualValues(t, committed, decodeCounter(actual.Data))
		assert.EqualValues(t, committed+1, actual.Version)
	})
}

func testGetAllByOwner(t *testing.T, s ledger.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		program := randomAddress(t)

		_, err := s.GetAllByOwner(ctx, program)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		var addresses []string
		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			for i := 0; i < 5; i++ {
				account := newAccount(t, randomAddress(t), uint64(i))
				account.Owner = program
				if err := tx.Create(ctx, account); err != nil {
					return err
				}
				addresses = append(addresses, account.Address)
			}

			return tx.Create(ctx, newAccount(t, randomAddress(t), 100))
		}))

		actual, err := s.GetAllByOwner(ctx, program)
		require.NoError(t, err)
		require.Len(t, actual, len(addresses))
		for i, account := range actual {
			assert.Equal(t, program, account.Owner)
			assert.Contains(t, addresses, account.Address)
			if i > 0 {
				assert.True(t, actual[i-1].Address < account.Address)
			}
		}
	})
}

func testSystemOperations(t *testing.T, s ledger.Store) {
	t.Run("testSystemOperations", func(t *testing.T) {
		ctx := context.Background()

		payer := randomAddress(t)
		address := randomAddress(t)
		program := randomAddress(t)
		data := make([]byte, 64)
		rent := ledger.RentExemptMinimum(len(data))

		assert.EqualValues(t, (128+64)*3480*2, rent)

		err := s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			_, err := ledger.CreateAccount(ctx, tx, payer, address, program, data)
			return err
		})
		assert.Equal(t, ledger.ErrInsufficientFunds, err)

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return ledger.Airdrop(ctx, tx, payer, rent-1)
		}))

		err = s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			_, err := ledger.CreateAccount(ctx, tx, payer, address, program, data)
			return err
		})
		assert.Equal(t, ledger.ErrInsufficientFunds, err)

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			if err := ledger.Airdrop(ctx, tx, payer, 11); err != nil {
				return err
			}
			_, err := ledger.CreateAccount(ctx, tx, payer, address, program, data)
			return err
		}))

		payerAccount, err := s.Get(ctx, payer)
		require.NoError(t, err)
		assert.Equal(t, ledger.SystemProgram, payerAccount.Owner)
		assert.EqualValues(t, 10, payerAccount.Lamports)

		created, err := s.Get(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, program, created.Owner)
		assert.Equal(t, rent, created.Lamports)
		assert.Equal(t, data, created.Data)

		err = s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			_, err := ledger.CreateAccount(ctx, tx, payer, address, program, data)
			return err
		})
		assert.Equal(t, ledger.ErrAccountAlreadyInitialized, err)

		// Program owned accounts can't fund new records
		err = s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			_, err := ledger.CreateAccount(ctx, tx, address, randomAddress(t), program, nil)
			return err
		})
		assert.Equal(t, ledger.ErrInvalidAccountOwner, err)

		require.NoError(t, s.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
			return ledger.CloseAccount(ctx, tx, address, payer)
		}))

		_, err = s.Get(ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		payerAccount, err = s.Get(ctx, payer)
		require.NoError(t, err)
		assert.Equal(t, rent+10, payerAccount.Lamports)
	})
}

func assertEquivalentAccounts(t *testing.T, obj1, obj2 *ledger.Account) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, obj1.Data, obj2.Data)
	assert.Equal(t, obj1.Version, obj2.Version)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
	assert.Equal(t, obj1.LastUpdatedAt.Unix(), obj2.LastUpdatedAt.Unix())
}

func newAccount(t *testing.T, address string, counter uint64) *ledger.Account {
	return &ledger.Account{
		Address:       address,
		Owner:         "test-program",
		Lamports:      ledger.RentExemptMinimum(8),
		Data:          encodeCounter(counter),
		LastUpdatedAt: time.Now(),
		CreatedAt:     time.Now(),
	}
}

func randomAddress(t *testing.T) string {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return base58.Encode(pub)
}

func encodeCounter(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func decodeCounter(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}
