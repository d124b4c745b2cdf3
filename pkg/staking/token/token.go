// Package token implements the token custody and issuance primitives the
// staking program relies on. Every operation runs within a ledger transaction
// and mutates SPL token state stored in ledger accounts owned by the token
// program.
package token

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	spltoken "github.com/code-payments/staking-server/pkg/solana/token"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

var (
	ErrInvalidMint            = errors.New("invalid token mint")
	ErrOwnerMismatch          = errors.New("token account owner mismatch")
	ErrMintAuthorityMismatch  = errors.New("mint authority mismatch")
	ErrAccountFrozen          = errors.New("token account is frozen")
	ErrNotDelegated           = errors.New("token account is not delegated to the authority")
	ErrInsufficientTokenFunds = errors.New("insufficient token balance")
	ErrOverflow               = errors.New("token amount overflow")
)

// ProgramAddress is the ledger owner of every mint and token account.
var ProgramAddress = base58.Encode(spltoken.ProgramKey)

// InitializeMint creates a new mint account funded by payer.
func InitializeMint(
	ctx context.Context,
	tx ledger.Tx,
	payer, mint ed25519.PublicKey,
	decimals uint8,
	mintAuthority, freezeAuthority ed25519.PublicKey,
) (*spltoken.Mint, error) {
	state := &spltoken.Mint{
		MintAuthority:   mintAuthority,
		Decimals:        decimals,
		IsInitialized:   true,
		FreezeAuthority: freezeAuthority,
	}

	_, err := ledger.CreateAccount(ctx, tx, base58.Encode(payer), base58.Encode(mint), ProgramAddress, state.Marshal())
	if err != nil {
		return nil, err
	}
	return state, nil
}

// CreateAssociatedAccount returns the associated token account of wallet for
// mint, creating it with payer's lamports when it doesn't exist yet.
func CreateAssociatedAccount(ctx context.Context, tx ledger.Tx, payer, wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	if _, _, err := loadMint(ctx, tx, mint); err != nil {
		return nil, err
	}

	address, err := spltoken.GetAssociatedAccount(wallet, mint)
	if err != nil {
		return nil, err
	}

	_, existing, err := loadAccount(ctx, tx, address)
	switch err {
	case nil:
		if !bytes.Equal(existing.Owner, wallet) {
			return nil, ErrOwnerMismatch
		}
		if !bytes.Equal(existing.Mint, mint) {
			return nil, ErrInvalidMint
		}
		return address, nil
	case ledger.ErrAccountNotFound:
	default:
		return nil, err
	}

	state := &spltoken.Account{
		Mint:  mint,
		Owner: wallet,
		State: spltoken.AccountStateInitialized,
	}
	_, err = ledger.CreateAccount(ctx, tx, base58.Encode(payer), base58.Encode(address), ProgramAddress, state.Marshal())
	if err != nil {
		return nil, err
	}
	return address, nil
}

// MintTo issues amount new units of mint into destination.
func MintTo(ctx context.Context, tx ledger.Tx, mint, destination ed25519.PublicKey, authority Authority, amount uint64) error {
	if err := authority.Authorize(); err != nil {
		return err
	}

	mintRecord, mintState, err := loadMint(ctx, tx, mint)
	if err != nil {
		return err
	}

	if len(mintState.MintAuthority) == 0 || !bytes.Equal(mintState.MintAuthority, authority.PublicKey()) {
		return ErrMintAuthorityMismatch
	}

	destinationRecord, destinationState, err := loadAccount(ctx, tx, destination)
	if err != nil {
		return err
	}

	if !bytes.Equal(destinationState.Mint, mint) {
		return ErrInvalidMint
	}
	if destinationState.IsFrozen() {
		return ErrAccountFrozen
	}
	if mintState.Supply > math.MaxUint64-amount || destinationState.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}

	mintState.Supply += amount
	destinationState.Amount += amount

	if err := save(ctx, tx, mintRecord, mintState.Marshal()); err != nil {
		return err
	}
	return save(ctx, tx, destinationRecord, destinationState.Marshal())
}

// DelegateAndFreeze approves delegate to move amount units out of the token
// account and then freezes it with the delegate's authority, so only the
// delegate can release it.
func DelegateAndFreeze(ctx context.Context, tx ledger.Tx, tokenAccount ed25519.PublicKey, owner, delegate Authority, amount uint64) error {
	if err := owner.Authorize(); err != nil {
		return err
	}
	if err := delegate.Authorize(); err != nil {
		return err
	}

	record, state, err := loadAccount(ctx, tx, tokenAccount)
	if err != nil {
		return err
	}

	if !bytes.Equal(state.Owner, owner.PublicKey()) {
		return ErrOwnerMismatch
	}
	if state.IsFrozen() {
		return ErrAccountFrozen
	}
	if amount == 0 || state.Amount < amount {
		return ErrInsufficientTokenFunds
	}

	state.Delegate = delegate.PublicKey()
	state.DelegatedAmount = amount
	state.State = spltoken.AccountStateFrozen

	return save(ctx, tx, record, state.Marshal())
}

// ThawAndRevoke reverses DelegateAndFreeze. The delegate thaws the account and
// the owner revokes the delegation.
func ThawAndRevoke(ctx context.Context, tx ledger.Tx, tokenAccount ed25519.PublicKey, owner, delegate Authority) error {
	if err := owner.Authorize(); err != nil {
		return err
	}
	if err := delegate.Authorize(); err != nil {
		return err
	}

	record, state, err := loadAccount(ctx, tx, tokenAccount)
	if err != nil {
		return err
	}

	if !bytes.Equal(state.Owner, owner.PublicKey()) {
		return ErrOwnerMismatch
	}
	if len(state.Delegate) == 0 || !bytes.Equal(state.Delegate, delegate.PublicKey()) {
		return ErrNotDelegated
	}

	state.Delegate = nil
	state.DelegatedAmount = 0
	state.State = spltoken.AccountStateInitialized

	return save(ctx, tx, record, state.Marshal())
}

// Transfer moves amount units between two token accounts of the same mint.
// The authority is either the source owner or its delegate.
func Transfer(ctx context.Context, tx ledger.Tx, source, destination ed25519.PublicKey, authority Authority, amount uint64) error {
	if err := authority.Authorize(); err != nil {
		return err
	}

	if bytes.Equal(source, destination) {
		return errors.New("cannot transfer to the source account")
	}

	sourceRecord, sourceState, err := loadAccount(ctx, tx, source)
	if err != nil {
		return err
	}

	destinationRecord, destinationState, err := loadAccount(ctx, tx, destination)
	if err != nil {
		return err
	}

	if !bytes.Equal(sourceState.Mint, destinationState.Mint) {
		return ErrInvalidMint
	}
	if sourceState.IsFrozen() || destinationState.IsFrozen() {
		return ErrAccountFrozen
	}

	isOwner := bytes.Equal(sourceState.Owner, authority.PublicKey())
	isDelegate := len(sourceState.Delegate) > 0 && bytes.Equal(sourceState.Delegate, authority.PublicKey())
	switch {
	case isOwner:
	case isDelegate:
		if sourceState.DelegatedAmount < amount {
			return ErrInsufficientTokenFunds
		}
		sourceState.DelegatedAmount -= amount
		if sourceState.DelegatedAmount == 0 {
			sourceState.Delegate = nil
		}
	default:
		return ErrOwnerMismatch
	}

	if sourceState.Amount < amount {
		return ErrInsufficientTokenFunds
	}
	if destinationState.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}

	sourceState.Amount -= amount
	destinationState.Amount += amount

	if err := save(ctx, tx, sourceRecord, sourceState.Marshal()); err != nil {
		return err
	}
	return save(ctx, tx, destinationRecord, destinationState.Marshal())
}

// GetMint reads and validates a mint account.
func GetMint(ctx context.Context, tx ledger.Tx, mint ed25519.PublicKey) (*spltoken.Mint, error) {
	_, state, err := loadMint(ctx, tx, mint)
	return state, err
}

// GetAccount reads and validates a token account.
func GetAccount(ctx context.Context, tx ledger.Tx, address ed25519.PublicKey) (*spltoken.Account, error) {
	_, state, err := loadAccount(ctx, tx, address)
	return state, err
}

func loadMint(ctx context.Context, tx ledger.Tx, address ed25519.PublicKey) (*ledger.Account, *spltoken.Mint, error) {
	record, err := tx.Get(ctx, base58.Encode(address))
	if err == ledger.ErrAccountNotFound {
		return nil, nil, ErrInvalidMint
	} else if err != nil {
		return nil, nil, err
	}

	var state spltoken.Mint
	if !record.IsOwnedBy(ProgramAddress) || !state.Unmarshal(record.Data) || !state.IsInitialized {
		return nil, nil, ErrInvalidMint
	}
	return record, &state, nil
}

func loadAccount(ctx context.Context, tx ledger.Tx, address ed25519.PublicKey) (*ledger.Account, *spltoken.Account, error) {
	record, err := tx.Get(ctx, base58.Encode(address))
	if err != nil {
		return nil, nil, err
	}

	if !record.IsOwnedBy(ProgramAddress) {
		return nil, nil, ledger.ErrInvalidAccountOwner
	}

	var state spltoken.Account
	if !state.Unmarshal(record.Data) || state.State == spltoken.AccountStateUninitialized {
		return nil, nil, ledger.ErrInvalidAccountData
	}
	return record, &state, nil
}

func save(ctx context.Context, tx ledger.Tx, record *ledger.Account, data []byte) error {
	record.Data = data
	record.LastUpdatedAt = time.Now()
	return tx.Update(ctx, record)
}
