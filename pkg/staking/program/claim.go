package program

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/metrics"
	spltoken "github.com/code-payments/staking-server/pkg/solana/token"
	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

type ClaimResult struct {
	TransactionID uuid.UUID
	Amount        uint64
}

// Claim redeems all of owner's points for the same number of rewards mint
// units, issued into owner's associated rewards account. The mint and the
// points reset commit together or not at all.
func (p *Program) Claim(ctx context.Context, owner *common.Account) (*ClaimResult, error) {
	var amount uint64

	id, err := p.execute(ctx, "Claim", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
	}, func(ctx context.Context, tx ledger.Tx) error {
		configAddress, _, config, err := p.loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		userRecord, user, err := p.loadUser(ctx, tx, owner.PublicKey().ToBytes())
		if err != nil {
			return err
		}

		if user.Points == 0 {
			return ErrNoPointsToClaim
		}

		destination, err := token.CreateAssociatedAccount(ctx, tx, user.Owner, user.Owner, config.RewardsMint)
		if err != nil {
			return err
		}

		toClaim := uint64(user.Points)
		if err := token.MintTo(ctx, tx, config.RewardsMint, destination, configAddress, toClaim); err != nil {
			return err
		}

		user.Points = 0
		if err := p.save(ctx, tx, userRecord, user.Marshal()); err != nil {
			return err
		}

		amount = toClaim
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPointsClaimed(amount)
	metrics.RecordCount(ctx, pointsClaimedMetricName, amount)

	return &ClaimResult{
		TransactionID: id,
		Amount:        amount,
	}, nil
}

// GetRewardBalance is owner's committed rewards mint balance. Owners that
// never claimed have a zero balance.
func (p *Program) GetRewardBalance(ctx context.Context, owner *common.Account) (uint64, error) {
	rewardsMint, err := p.rewardsMintAddress()
	if err != nil {
		return 0, err
	}

	holding, err := spltoken.GetAssociatedAccount(owner.PublicKey().ToBytes(), rewardsMint.PublicKey())
	if err != nil {
		return 0, err
	}

	var balance uint64
	err = p.ledger.ExecuteInTx(ctx, func(ctx context.Context, tx ledger.Tx) error {
		account, err := token.GetAccount(ctx, tx, holding)
		switch err {
		case nil:
			balance = account.Amount
			return nil
		case ledger.ErrAccountNotFound:
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
