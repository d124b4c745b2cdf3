package program

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"sort"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	spltoken "github.com/code-payments/staking-server/pkg/solana/token"
	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/state"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

// Stake takes custody of the NFT held in owner's associated token account for
// mint. The token account is delegated to and frozen by the stake record, and
// owner is granted the configured points per stake.
func (p *Program) Stake(ctx context.Context, owner *common.Account, mint ed25519.PublicKey) (uuid.UUID, error) {
	return p.execute(ctx, "Stake", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
		"mint":  base58.Encode(mint),
	}, func(ctx context.Context, tx ledger.Tx) error {
		_, _, config, err := p.loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		userRecord, user, err := p.loadUser(ctx, tx, owner.PublicKey().ToBytes())
		if err != nil {
			return err
		}

		if user.AmountStaked >= config.MaxStake {
			return ErrMaxStakeReached
		}

		holding, err := p.getHeldNft(ctx, tx, owner.PublicKey().ToBytes(), mint)
		if err != nil {
			return err
		}

		stakeAddress, err := p.stakeAddress(mint)
		if err != nil {
			return err
		}

		stake := &state.StakeAccount{
			Owner:    owner.PublicKey().ToBytes(),
			Mint:     mint,
			StakedAt: p.clock().Unix(),
			Bump:     stakeAddress.Bump,
		}
		if _, err := p.create(ctx, tx, stake.Owner, stakeAddress, stake.Marshal()); err != nil {
			return err
		}

		err = token.DelegateAndFreeze(ctx, tx, holding, token.WalletAuthority(owner), stakeAddress, 1)
		if err != nil {
			return err
		}

		user.AmountStaked = state.SaturatingAdd(user.AmountStaked, 1)
		user.Points = state.SaturatingAdd(user.Points, uint32(config.PointsPerStake))
		return p.save(ctx, tx, userRecord, user.Marshal())
	})
}

// Unstake releases custody of a staked NFT once the freeze period has elapsed,
// erases the stake record and takes back the points it granted.
func (p *Program) Unstake(ctx context.Context, owner *common.Account, mint ed25519.PublicKey) (uuid.UUID, error) {
	return p.execute(ctx, "Unstake", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
		"mint":  base58.Encode(mint),
	}, func(ctx context.Context, tx ledger.Tx) error {
		_, _, config, err := p.loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		stakeAddress, err := p.stakeAddress(mint)
		if err != nil {
			return err
		}

		var stake state.StakeAccount
		if _, err := p.load(ctx, tx, stakeAddress.PublicKey(), &stake); err != nil {
			return err
		}

		if !bytes.Equal(stake.Owner, owner.PublicKey().ToBytes()) {
			return ErrUnauthorized
		}
		if !bytes.Equal(stake.Mint, mint) {
			return ErrAssetMismatch
		}

		userRecord, user, err := p.loadUser(ctx, tx, stake.Owner)
		if err != nil {
			return err
		}

		// Boundary inclusive: exactly freeze_period days is enough.
		if stake.ElapsedDays(p.clock()) < config.FreezePeriod {
			return ErrFreezePeriodNotMet
		}

		holding, err := spltoken.GetAssociatedAccount(stake.Owner, mint)
		if err != nil {
			return err
		}

		if err := token.ThawAndRevoke(ctx, tx, holding, token.WalletAuthority(owner), stakeAddress); err != nil {
			return err
		}

		if err := p.close(ctx, tx, stakeAddress.PublicKey(), stake.Owner); err != nil {
			return err
		}

		user.AmountStaked = state.SaturatingSub(user.AmountStaked, 1)
		user.Points = state.SaturatingSub(user.Points, uint32(config.PointsPerStake))
		return p.save(ctx, tx, userRecord, user.Marshal())
	})
}

// GetStakeAccount reads the committed stake record for mint.
func (p *Program) GetStakeAccount(ctx context.Context, mint ed25519.PublicKey) (*state.StakeAccount, error) {
	address, err := p.stakeAddress(mint)
	if err != nil {
		return nil, err
	}

	var stake state.StakeAccount
	if _, err := p.load(ctx, p.ledger, address.PublicKey(), &stake); err != nil {
		return nil, err
	}
	return &stake, nil
}

// GetStakeAccounts lists the committed stake records of owner, oldest first.
func (p *Program) GetStakeAccounts(ctx context.Context, owner ed25519.PublicKey) ([]*state.StakeAccount, error) {
	records, err := p.ledger.GetAllByOwner(ctx, p.address)
	if err == ledger.ErrAccountNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var res []*state.StakeAccount
	for _, record := range records {
		var stake state.StakeAccount
		if err := stake.Unmarshal(record.Data); err != nil {
			continue
		}

		if bytes.Equal(stake.Owner, owner) {
			res = append(res, &stake)
		}
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].StakedAt != res[j].StakedAt {
			return res[i].StakedAt < res[j].StakedAt
		}
		return bytes.Compare(res[i].Mint, res[j].Mint) < 0
	})
	return res, nil
}

// getHeldNft returns owner's associated token account for mint, provided mint
// is an NFT and the account holds it.
func (p *Program) getHeldNft(ctx context.Context, tx ledger.Tx, owner, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	mintState, err := token.GetMint(ctx, tx, mint)
	if err == token.ErrInvalidMint {
		return nil, ErrInvalidAsset
	} else if err != nil {
		return nil, err
	}

	if !mintState.IsNonFungible() {
		return nil, ErrInvalidAsset
	}

	holding, err := spltoken.GetAssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	account, err := token.GetAccount(ctx, tx, holding)
	if err == ledger.ErrAccountNotFound {
		return nil, ErrInvalidAsset
	} else if err != nil {
		return nil, err
	}

	if account.Amount != 1 {
		return nil, ErrInvalidAsset
	}
	return holding, nil
}
