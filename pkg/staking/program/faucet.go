package program

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

const nftMintAuthoritySeed = "nft_mint"

// Airdrop credits wallet with lamports out of thin air. It only exists to
// fund wallets on development deployments.
func (p *Program) Airdrop(ctx context.Context, wallet *common.Account, lamports uint64) (uuid.UUID, error) {
	return p.execute(ctx, "Airdrop", logrus.Fields{
		"wallet":   wallet.PublicKey().ToBase58(),
		"lamports": lamports,
	}, func(ctx context.Context, tx ledger.Tx) error {
		return ledger.Airdrop(ctx, tx, wallet.PublicKey().ToBase58(), lamports)
	})
}

// MintNft creates a fresh zero decimal mint and mints its only token into
// owner's associated token account. Owner pays rent for both records. The mint
// authority is an address derived by the program, so no wallet can inflate
// the supply afterwards.
func (p *Program) MintNft(ctx context.Context, owner *common.Account) (*common.Account, uuid.UUID, error) {
	mint, err := common.NewRandomAccount()
	if err != nil {
		return nil, uuid.Nil, err
	}
	mintKey := mint.PublicKey().ToBytes()

	authority, err := p.pda.Derive([]byte(nftMintAuthoritySeed), mintKey)
	if err != nil {
		return nil, uuid.Nil, err
	}

	id, err := p.execute(ctx, "MintNft", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
		"mint":  mint.PublicKey().ToBase58(),
	}, func(ctx context.Context, tx ledger.Tx) error {
		payer := owner.PublicKey().ToBytes()
		if _, err := token.InitializeMint(ctx, tx, payer, mintKey, 0, authority.PublicKey(), authority.PublicKey()); err != nil {
			return err
		}

		holding, err := token.CreateAssociatedAccount(ctx, tx, payer, payer, mintKey)
		if err != nil {
			return err
		}
		return token.MintTo(ctx, tx, mintKey, holding, authority, 1)
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return mint, id, nil
}
