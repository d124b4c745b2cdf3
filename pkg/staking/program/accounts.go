package program

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/pda"
	"github.com/code-payments/staking-server/pkg/staking/state"
)

// accountReader is satisfied by both a ledger.Store, for committed reads, and a
// ledger.Tx.
type accountReader interface {
	Get(ctx context.Context, address string) (*ledger.Account, error)
}

type decodable interface {
	Unmarshal(data []byte) error
}

// load reads a program owned record at address into dst.
func (p *Program) load(ctx context.Context, reader accountReader, address ed25519.PublicKey, dst decodable) (*ledger.Account, error) {
	record, err := reader.Get(ctx, base58.Encode(address))
	if err != nil {
		return nil, err
	}

	if !record.IsOwnedBy(p.address) {
		return nil, ledger.ErrInvalidAccountOwner
	}

	if err := dst.Unmarshal(record.Data); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Program) create(ctx context.Context, tx ledger.Tx, payer ed25519.PublicKey, address *pda.Address, data []byte) (*ledger.Account, error) {
	return ledger.CreateAccount(ctx, tx, base58.Encode(payer), base58.Encode(address.PublicKey()), p.address, data)
}

func (p *Program) save(ctx context.Context, tx ledger.Tx, record *ledger.Account, data []byte) error {
	record.Data = data
	record.LastUpdatedAt = time.Now()
	return tx.Update(ctx, record)
}

func (p *Program) close(ctx context.Context, tx ledger.Tx, address ed25519.PublicKey, refundTo ed25519.PublicKey) error {
	return ledger.CloseAccount(ctx, tx, base58.Encode(address), base58.Encode(refundTo))
}

func (p *Program) configAddress() (*pda.Address, error) {
	return p.pda.GetConfigAddress(&pda.GetConfigAddressArgs{})
}

func (p *Program) rewardsMintAddress() (*pda.Address, error) {
	config, err := p.configAddress()
	if err != nil {
		return nil, err
	}
	return p.pda.GetRewardsMintAddress(&pda.GetRewardsMintAddressArgs{
		Config: config.PublicKey(),
	})
}

func (p *Program) userAddress(owner ed25519.PublicKey) (*pda.Address, error) {
	return p.pda.GetUserAddress(&pda.GetUserAddressArgs{
		Owner: owner,
	})
}

func (p *Program) stakeAddress(mint ed25519.PublicKey) (*pda.Address, error) {
	config, err := p.configAddress()
	if err != nil {
		return nil, err
	}
	return p.pda.GetStakeAddress(&pda.GetStakeAddressArgs{
		Mint:   mint,
		Config: config.PublicKey(),
	})
}

func (p *Program) venueAddress(name string) (*pda.Address, error) {
	config, err := p.configAddress()
	if err != nil {
		return nil, err
	}
	return p.pda.GetVenueAddress(&pda.GetVenueAddressArgs{
		Config: config.PublicKey(),
		Name:   name,
	})
}

func (p *Program) submissionAddress(venue, owner ed25519.PublicKey) (*pda.Address, error) {
	return p.pda.GetSubmissionAddress(&pda.GetSubmissionAddressArgs{
		Venue: venue,
		Owner: owner,
	})
}

func (p *Program) loadConfig(ctx context.Context, reader accountReader) (*pda.Address, *ledger.Account, *state.ConfigAccount, error) {
	address, err := p.configAddress()
	if err != nil {
		return nil, nil, nil, err
	}

	var config state.ConfigAccount
	record, err := p.load(ctx, reader, address.PublicKey(), &config)
	if err != nil {
		return nil, nil, nil, err
	}
	return address, record, &config, nil
}

// loadUser reads the owner's points account and checks it belongs to them.
func (p *Program) loadUser(ctx context.Context, reader accountReader, owner ed25519.PublicKey) (*ledger.Account, *state.UserAccount, error) {
	address, err := p.userAddress(owner)
	if err != nil {
		return nil, nil, err
	}

	var user state.UserAccount
	record, err := p.load(ctx, reader, address.PublicKey(), &user)
	if err != nil {
		return nil, nil, err
	}

	if !bytes.Equal(user.Owner, owner) {
		return nil, nil, ErrUnauthorized
	}
	return record, &user, nil
}
