package ledger

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
)

// SystemProgram owns wallet accounts, which hold lamports and no data.
const SystemProgram = "11111111111111111111111111111111"

const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionThreshold     = 2
)

// RentExemptMinimum is the lamport balance a record of the provided data size
// must hold for as long as it exists.
func RentExemptMinimum(size int) uint64 {
	return uint64(accountStorageOverhead+size) * lamportsPerByteYear * exemptionThreshold
}

// Airdrop credits lamports to a wallet, creating its system account when it
// doesn't exist yet.
func Airdrop(ctx context.Context, tx Tx, wallet string, lamports uint64) error {
	existing, err := tx.Get(ctx, wallet)
	switch err {
	case nil:
		if !existing.IsOwnedBy(SystemProgram) {
			return ErrInvalidAccountOwner
		}
		if existing.Lamports > math.MaxUint64-lamports {
			return errors.New("lamport balance overflow")
		}

		existing.Lamports += lamports
		existing.LastUpdatedAt = time.Now()
		return tx.Update(ctx, existing)
	case ErrAccountNotFound:
		return tx.Create(ctx, &Account{
			Address:  wallet,
			Owner:    SystemProgram,
			Lamports: lamports,

			LastUpdatedAt: time.Now(),
			CreatedAt:     time.Now(),
		})
	default:
		return err
	}
}

// CreateAccount allocates a record at address owned by program, funded by
// payer with the rent exempt minimum for data.
func CreateAccount(ctx context.Context, tx Tx, payer, address, program string, data []byte) (*Account, error) {
	if payer == address {
		return nil, errors.New("payer cannot fund its own address")
	}

	if _, err := tx.Get(ctx, address); err == nil {
		return nil, ErrAccountAlreadyInitialized
	} else if err != ErrAccountNotFound {
		return nil, err
	}

	payerAccount, err := tx.Get(ctx, payer)
	if err == ErrAccountNotFound {
		return nil, ErrInsufficientFunds
	} else if err != nil {
		return nil, err
	}

	if !payerAccount.IsOwnedBy(SystemProgram) {
		return nil, ErrInvalidAccountOwner
	}

	rent := RentExemptMinimum(len(data))
	if payerAccount.Lamports < rent {
		return nil, ErrInsufficientFunds
	}

	payerAccount.Lamports -= rent
	payerAccount.LastUpdatedAt = time.Now()
	if err := tx.Update(ctx, payerAccount); err != nil {
		return nil, err
	}

	created := &Account{
		Address:  address,
		Owner:    program,
		Lamports: rent,
		Data:     data,

		LastUpdatedAt: time.Now(),
		CreatedAt:     time.Now(),
	}
	if err := tx.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// CloseAccount erases the record at address and refunds its lamports to
// refundTo.
func CloseAccount(ctx context.Context, tx Tx, address, refundTo string) error {
	if address == refundTo {
		return errors.New("cannot refund an account to itself")
	}

	closed, err := tx.Get(ctx, address)
	if err != nil {
		return err
	}

	if err := tx.Delete(ctx, address); err != nil {
		return err
	}

	return Airdrop(ctx, tx, refundTo, closed.Lamports)
}
