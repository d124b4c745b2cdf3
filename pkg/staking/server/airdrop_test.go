package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/code-payments/staking-server/pkg/testutil"
)

func TestAirdropAndMintNft_HappyPath(t *testing.T) {
	env, cleanup := setup(t, &testOverrides{enableAirdrops: true})
	defer cleanup()

	env.initializeConfig(t)

	user := env.newClient(t, false)

	_, err := user.MintNft(env.ctx)
	testutil.AssertStatusErrorWithCode(t, err, codes.ResourceExhausted)

	resp, err := user.Airdrop(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, airdropLamports, resp.Lamports)
	assert.NotEmpty(t, resp.Transaction.ID)

	wallet, err := env.store.Get(env.ctx, user.Signer().PublicKey().ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, airdropLamports, wallet.Lamports)

	_, err = user.InitializeUser(env.ctx)
	require.NoError(t, err)

	mint, err := user.MintNft(env.ctx)
	require.NoError(t, err)

	_, err = user.Stake(env.ctx, mint)
	require.NoError(t, err)

	account, err := user.GetUserAccount(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, account.Points)
	assert.EqualValues(t, 1, account.AmountStaked)

	stake, err := user.GetStakeAccount(env.ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, user.Signer().PublicKey().ToBase58(), stake.Owner)
}

func TestAirdropAndMintNft_Disabled(t *testing.T) {
	env, cleanup := setup(t, &testOverrides{})
	defer cleanup()

	user := env.newClient(t, true)

	_, err := user.Airdrop(env.ctx)
	testutil.AssertStatusErrorWithCode(t, err, codes.Unavailable)

	_, err = user.MintNft(env.ctx)
	testutil.AssertStatusErrorWithCode(t, err, codes.Unavailable)

	wallet, err := env.store.Get(env.ctx, user.Signer().PublicKey().ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, defaultAirdrop, wallet.Lamports)
}
