package program

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/state"
)

func TestInitializeConfig(t *testing.T) {
	env := setup(t, nil)

	_, err := env.program.GetConfig(env.ctx)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	id, err := env.program.InitializeConfig(env.ctx, env.admin, &InitializeConfigArgs{
		PointsPerStake: 3,
		MaxStake:       7,
		FreezePeriod:   14,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	config, err := env.program.GetConfig(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, env.admin.PublicKey().ToBytes(), config.Admin)
	assert.EqualValues(t, 3, config.PointsPerStake)
	assert.EqualValues(t, 7, config.MaxStake)
	assert.EqualValues(t, 14, config.FreezePeriod)

	rewardsMint, err := env.program.rewardsMintAddress()
	require.NoError(t, err)
	assert.EqualValues(t, rewardsMint.PublicKey(), config.RewardsMint)
	assert.Equal(t, rewardsMint.Bump, config.RewardsBump)

	configAddress, err := env.program.configAddress()
	require.NoError(t, err)
	assert.Equal(t, configAddress.Bump, config.Bump)

	record, err := env.store.Get(env.ctx, base58.Encode(configAddress.PublicKey()))
	require.NoError(t, err)
	assert.Equal(t, env.program.Address(), record.Owner)
	assert.Equal(t, ledger.RentExemptMinimum(state.ConfigAccountSize), record.Lamports)

	_, err = env.program.InitializeConfig(env.ctx, env.admin, defaultConfigArgs())
	assert.Equal(t, ledger.ErrAccountAlreadyInitialized, err)

	config, err = env.program.GetConfig(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 14, config.FreezePeriod)
}

func TestInitializeConfig_InsufficientFunds(t *testing.T) {
	env := setup(t, nil)

	broke := newWallet(t)
	_, err := env.program.InitializeConfig(env.ctx, broke, defaultConfigArgs())
	assert.Equal(t, ledger.ErrInsufficientFunds, err)

	_, err = env.program.GetConfig(env.ctx)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestCloseConfig(t *testing.T) {
	env := setup(t, defaultConfigArgs())

	configAddress, err := env.program.configAddress()
	require.NoError(t, err)

	impostor := newWallet(t)
	env.airdrop(t, impostor)

	_, err = env.program.CloseConfig(env.ctx, impostor)
	assert.Equal(t, ErrUnauthorized, err)

	_, err = env.program.GetConfig(env.ctx)
	require.NoError(t, err)

	adminLamports := env.getLamports(t, env.admin.PublicKey().ToBase58())
	configLamports := env.getLamports(t, base58.Encode(configAddress.PublicKey()))

	_, err = env.program.CloseConfig(env.ctx, env.admin)
	require.NoError(t, err)

	_, err = env.program.GetConfig(env.ctx)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
	assert.Equal(t, adminLamports+configLamports, env.getLamports(t, env.admin.PublicKey().ToBase58()))

	_, err = env.program.CloseConfig(env.ctx, env.admin)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	// The rewards mint survives and is reused
	rewardsMint, err := env.program.rewardsMintAddress()
	require.NoError(t, err)
	_, err = env.store.Get(env.ctx, base58.Encode(rewardsMint.PublicKey()))
	require.NoError(t, err)

	_, err = env.program.InitializeConfig(env.ctx, env.admin, defaultConfigArgs())
	require.NoError(t, err)
}

func TestInstructionsRequireConfig(t *testing.T) {
	env := setup(t, nil)
	owner := env.newUser(t)
	mint := env.newNft(t, owner)

	_, err := env.program.Stake(env.ctx, owner, mint)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	_, err = env.program.Claim(env.ctx, owner)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	_, err = env.program.CreateSubmission(env.ctx, owner, "venue", 80)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	assert.False(t, env.getHolding(t, owner, mint).IsFrozen())
}
