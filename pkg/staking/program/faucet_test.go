package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

func TestAirdrop(t *testing.T) {
	env := setup(t, nil)
	wallet := newWallet(t)

	_, err := env.program.Airdrop(env.ctx, wallet, 5_000)
	require.NoError(t, err)
	assert.EqualValues(t, 5_000, env.getLamports(t, wallet.PublicKey().ToBase58()))

	_, err = env.program.Airdrop(env.ctx, wallet, 1_000)
	require.NoError(t, err)
	assert.EqualValues(t, 6_000, env.getLamports(t, wallet.PublicKey().ToBase58()))
}

func TestMintNft_Stakeable(t *testing.T) {
	env := setup(t, defaultConfigArgs())

	owner := newWallet(t)
	_, _, err := env.program.MintNft(env.ctx, owner)
	assert.Equal(t, ledger.ErrInsufficientFunds, err)

	_, err = env.program.Airdrop(env.ctx, owner, defaultAirdrop)
	require.NoError(t, err)

	mint, _, err := env.program.MintNft(env.ctx, owner)
	require.NoError(t, err)

	holding := env.getHolding(t, owner, mint.PublicKey().ToBytes())
	assert.EqualValues(t, 1, holding.Amount)
	assert.EqualValues(t, owner.PublicKey().ToBytes(), holding.Owner)

	_, err = env.program.InitializeUser(env.ctx, owner)
	require.NoError(t, err)
	_, err = env.program.Stake(env.ctx, owner, mint.PublicKey().ToBytes())
	require.NoError(t, err)

	points, staked, _ := env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
	assert.EqualValues(t, 1, staked)

	other, _, err := env.program.MintNft(env.ctx, owner)
	require.NoError(t, err)
	assert.NotEqual(t, mint.PublicKey().ToBase58(), other.PublicKey().ToBase58())
}
