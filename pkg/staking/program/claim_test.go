package program

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/ledger/memory"
)

func TestClaim_NoPoints(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)

	lamportsBefore := env.getLamports(t, owner.PublicKey().ToBase58())

	_, err := env.program.Claim(env.ctx, owner)
	assert.Equal(t, ErrNoPointsToClaim, err)

	points, staked, submissions := env.getUser(t, owner)
	assert.Zero(t, points)
	assert.Zero(t, staked)
	assert.Zero(t, submissions)
	assert.Zero(t, env.getRewardBalance(t, owner))
	assert.Equal(t, lamportsBefore, env.getLamports(t, owner.PublicKey().ToBase58()))
}

func TestClaim(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)

	for i := 0; i < 3; i++ {
		_, err := env.program.Stake(env.ctx, owner, env.newNft(t, owner))
		require.NoError(t, err)
	}

	result, err := env.program.Claim(env.ctx, owner)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.TransactionID)
	assert.EqualValues(t, 30, result.Amount)

	points, staked, _ := env.getUser(t, owner)
	assert.Zero(t, points)
	assert.EqualValues(t, 3, staked)
	assert.EqualValues(t, 30, env.getRewardBalance(t, owner))

	// No replay
	_, err = env.program.Claim(env.ctx, owner)
	assert.Equal(t, ErrNoPointsToClaim, err)
	assert.EqualValues(t, 30, env.getRewardBalance(t, owner))

	// Later accruals are claimable into the same account
	_, err = env.program.Stake(env.ctx, owner, env.newNft(t, owner))
	require.NoError(t, err)

	result, err = env.program.Claim(env.ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 10, result.Amount)
	assert.EqualValues(t, 40, env.getRewardBalance(t, owner))
}

func TestClaim_Unauthorized(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)

	_, err := env.program.Stake(env.ctx, owner, env.newNft(t, owner))
	require.NoError(t, err)

	// Someone without a points account has nothing to claim, and can't reach
	// another owner's account.
	stranger := newWallet(t)
	env.airdrop(t, stranger)
	_, err = env.program.Claim(env.ctx, stranger)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	points, _, _ := env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
	assert.Zero(t, env.getRewardBalance(t, stranger))
}

func TestClaim_AtomicWithMint(t *testing.T) {
	faulty := &faultyStore{Store: memory.New()}
	env := setupWithStore(t, faulty, defaultConfigArgs())
	owner := env.newUser(t)

	_, err := env.program.Stake(env.ctx, owner, env.newNft(t, owner))
	require.NoError(t, err)

	config, err := env.program.GetConfig(env.ctx)
	require.NoError(t, err)

	mintFailure := errors.New("mint failure")
	faulty.failUpdatesTo(base58.Encode(config.RewardsMint), mintFailure)

	_, err = env.program.Claim(env.ctx, owner)
	assert.Equal(t, mintFailure, err)

	points, _, _ := env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
	assert.Zero(t, env.getRewardBalance(t, owner))

	userAddress, err := env.program.userAddress(owner.PublicKey().ToBytes())
	require.NoError(t, err)

	pointsResetFailure := errors.New("points reset failure")
	faulty.failUpdatesTo(base58.Encode(userAddress.PublicKey()), pointsResetFailure)

	_, err = env.program.Claim(env.ctx, owner)
	assert.Equal(t, pointsResetFailure, err)

	points, _, _ = env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
	assert.Zero(t, env.getRewardBalance(t, owner))

	faulty.failUpdatesTo("", nil)

	result, err := env.program.Claim(env.ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 10, result.Amount)
	assert.EqualValues(t, 10, env.getRewardBalance(t, owner))
}

func TestClaim_RequiresFundsForRewardsAccount(t *testing.T) {
	env := setup(t, defaultConfigArgs())

	owner := newWallet(t)
	env.airdrop(t, owner)
	_, err := env.program.InitializeUser(env.ctx, owner)
	require.NoError(t, err)
	_, err = env.program.Stake(env.ctx, owner, env.newNft(t, owner))
	require.NoError(t, err)

	// Drain the wallet so the rewards account can't be paid for
	require.NoError(t, env.store.ExecuteInTx(env.ctx, func(ctx context.Context, tx ledger.Tx) error {
		wallet, err := tx.Get(ctx, owner.PublicKey().ToBase58())
		if err != nil {
			return err
		}
		wallet.Lamports = 0
		return tx.Update(ctx, wallet)
	}))

	_, err = env.program.Claim(env.ctx, owner)
	assert.Equal(t, ledger.ErrInsufficientFunds, err)

	points, _, _ := env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
}

func TestScenario_StakeWaitUnstakeClaim(t *testing.T) {
	env := setup(t, &InitializeConfigArgs{
		PointsPerStake: 10,
		MaxStake:       5,
		FreezePeriod:   2,
	})
	owner := env.newUser(t)
	mint := env.newNft(t, owner)

	_, err := env.program.Stake(env.ctx, owner, mint)
	require.NoError(t, err)

	env.clock.Advance(2 * day)
	_, err = env.program.Unstake(env.ctx, owner, mint)
	require.NoError(t, err)

	// Withdrawing takes back the points the deposit granted
	points, staked, _ := env.getUser(t, owner)
	assert.EqualValues(t, 0, points)
	assert.EqualValues(t, 0, staked)
	assert.False(t, env.getHolding(t, owner, mint).IsFrozen())

	_, err = env.program.Claim(env.ctx, owner)
	assert.Equal(t, ErrNoPointsToClaim, err)
	assert.Zero(t, env.getRewardBalance(t, owner))
}

func TestScenario_StakeClaimWaitUnstake(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)
	mint := env.newNft(t, owner)

	_, err := env.program.Stake(env.ctx, owner, mint)
	require.NoError(t, err)

	env.clock.Advance(day)
	_, err = env.program.Unstake(env.ctx, owner, mint)
	assert.Equal(t, ErrFreezePeriodNotMet, err)

	points, staked, _ := env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
	assert.EqualValues(t, 1, staked)
	_, err = env.program.GetStakeAccount(env.ctx, mint)
	require.NoError(t, err)

	result, err := env.program.Claim(env.ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 10, result.Amount)

	env.clock.Advance(day)
	_, err = env.program.Unstake(env.ctx, owner, mint)
	require.NoError(t, err)

	points, staked, _ = env.getUser(t, owner)
	assert.Zero(t, points)
	assert.Zero(t, staked)
	assert.EqualValues(t, 10, env.getRewardBalance(t, owner))
	assert.False(t, env.getHolding(t, owner, mint).IsFrozen())
}
