package program

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/state"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

type InitializeConfigArgs struct {
	PointsPerStake uint8
	MaxStake       uint8
	// Whole days
	FreezePeriod uint32
}

// InitializeConfig creates the program's singleton config, along with the
// rewards mint the config signs for. Fails if the config already exists.
func (p *Program) InitializeConfig(ctx context.Context, admin *common.Account, args *InitializeConfigArgs) (uuid.UUID, error) {
	return p.execute(ctx, "InitializeConfig", logrus.Fields{
		"admin":            admin.PublicKey().ToBase58(),
		"points_per_stake": args.PointsPerStake,
		"max_stake":        args.MaxStake,
		"freeze_period":    args.FreezePeriod,
	}, func(ctx context.Context, tx ledger.Tx) error {
		configAddress, err := p.configAddress()
		if err != nil {
			return err
		}

		rewardsAddress, err := p.rewardsMintAddress()
		if err != nil {
			return err
		}

		config := &state.ConfigAccount{
			Admin:          admin.PublicKey().ToBytes(),
			RewardsMint:    rewardsAddress.PublicKey(),
			PointsPerStake: args.PointsPerStake,
			MaxStake:       args.MaxStake,
			FreezePeriod:   args.FreezePeriod,
			RewardsBump:    rewardsAddress.Bump,
			Bump:           configAddress.Bump,
		}
		if _, err := p.create(ctx, tx, config.Admin, configAddress, config.Marshal()); err != nil {
			return err
		}

		// The rewards mint outlives a closed config, so a re-initialized
		// config picks the existing one back up.
		mint, err := token.GetMint(ctx, tx, rewardsAddress.PublicKey())
		switch err {
		case nil:
			if !bytes.Equal(mint.MintAuthority, configAddress.PublicKey()) {
				return token.ErrMintAuthorityMismatch
			}
		case token.ErrInvalidMint:
			_, err = token.InitializeMint(
				ctx,
				tx,
				config.Admin,
				rewardsAddress.PublicKey(),
				RewardsMintDecimals,
				configAddress.PublicKey(),
				configAddress.PublicKey(),
			)
			if err != nil {
				return err
			}
		default:
			return err
		}
		return nil
	})
}

// CloseConfig erases the config and refunds its lamports to the admin. Only
// the admin stored in the config may close it.
func (p *Program) CloseConfig(ctx context.Context, admin *common.Account) (uuid.UUID, error) {
	return p.execute(ctx, "CloseConfig", logrus.Fields{
		"admin": admin.PublicKey().ToBase58(),
	}, func(ctx context.Context, tx ledger.Tx) error {
		address, _, config, err := p.loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		if !bytes.Equal(config.Admin, admin.PublicKey().ToBytes()) {
			return ErrUnauthorized
		}

		return p.close(ctx, tx, address.PublicKey(), config.Admin)
	})
}

// GetConfig reads the committed config.
func (p *Program) GetConfig(ctx context.Context) (*state.ConfigAccount, error) {
	_, _, config, err := p.loadConfig(ctx, p.ledger)
	return config, err
}
