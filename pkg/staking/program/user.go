package program

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/state"
)

// InitializeUser creates a zeroed points account for owner, paid for by
// owner.
func (p *Program) InitializeUser(ctx context.Context, owner *common.Account) (uuid.UUID, error) {
	return p.execute(ctx, "InitializeUser", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
	}, func(ctx context.Context, tx ledger.Tx) error {
		address, err := p.userAddress(owner.PublicKey().ToBytes())
		if err != nil {
			return err
		}

		user := &state.UserAccount{
			Owner: owner.PublicKey().ToBytes(),
			Bump:  address.Bump,
		}
		_, err = p.create(ctx, tx, user.Owner, address, user.Marshal())
		return err
	})
}

// CloseUser erases owner's points account. Unclaimed points are forfeited.
// Accounts still counting active stake or submission records can't be closed.
func (p *Program) CloseUser(ctx context.Context, owner *common.Account) (uuid.UUID, error) {
	return p.execute(ctx, "CloseUser", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
	}, func(ctx context.Context, tx ledger.Tx) error {
		_, user, err := p.loadUser(ctx, tx, owner.PublicKey().ToBytes())
		if err != nil {
			return err
		}

		if user.HasActiveRecords() {
			return ErrUserHasActiveRecords
		}

		address, err := p.userAddress(user.Owner)
		if err != nil {
			return err
		}
		return p.close(ctx, tx, address.PublicKey(), user.Owner)
	})
}

// GetUserAccount reads owner's committed points account.
func (p *Program) GetUserAccount(ctx context.Context, owner *common.Account) (*state.UserAccount, error) {
	_, user, err := p.loadUser(ctx, p.ledger, owner.PublicKey().ToBytes())
	return user, err
}
