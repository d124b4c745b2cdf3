package pda

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/solana"
	"github.com/code-payments/staking-server/pkg/staking/common"
)

func TestDeriver_Deterministic(t *testing.T) {
	program := newRandomAccount(t)
	owner := newRandomAccount(t)

	d1 := NewDeriver(program)
	d2 := NewDeriver(program)

	config1, err := d1.GetConfigAddress(&GetConfigAddressArgs{})
	require.NoError(t, err)
	config2, err := d2.GetConfigAddress(&GetConfigAddressArgs{})
	require.NoError(t, err)
	assert.Equal(t, config1.Address, config2.Address)
	assert.Equal(t, config1.Bump, config2.Bump)

	expected, bump, err := solana.FindProgramAddressAndBump(program.PublicKey().ToBytes(), []byte("user"), owner.PublicKey().ToBytes())
	require.NoError(t, err)

	user, err := d1.GetUserAddress(&GetUserAddressArgs{Owner: owner.PublicKey().ToBytes()})
	require.NoError(t, err)
	assert.EqualValues(t, expected, user.Address)
	assert.Equal(t, bump, user.Bump)

	cached, err := d1.GetUserAddress(&GetUserAddressArgs{Owner: owner.PublicKey().ToBytes()})
	require.NoError(t, err)
	assert.True(t, user == cached)

	other, err := NewDeriver(newRandomAccount(t)).GetUserAddress(&GetUserAddressArgs{Owner: owner.PublicKey().ToBytes()})
	require.NoError(t, err)
	assert.NotEqual(t, user.Address, other.Address)
}

func TestDeriver_AllRecords(t *testing.T) {
	d := NewDeriver(newRandomAccount(t))
	owner := newRandomAccount(t).PublicKey().ToBytes()
	mint := newRandomAccount(t).PublicKey().ToBytes()

	config, err := d.GetConfigAddress(&GetConfigAddressArgs{})
	require.NoError(t, err)

	rewards, err := d.GetRewardsMintAddress(&GetRewardsMintAddressArgs{Config: config.Address})
	require.NoError(t, err)

	user, err := d.GetUserAddress(&GetUserAddressArgs{Owner: owner})
	require.NoError(t, err)

	stake, err := d.GetStakeAddress(&GetStakeAddressArgs{Mint: mint, Config: config.Address})
	require.NoError(t, err)

	venue, err := d.GetVenueAddress(&GetVenueAddressArgs{Config: config.Address, Name: "madison square garden"})
	require.NoError(t, err)

	submission, err := d.GetSubmissionAddress(&GetSubmissionAddressArgs{Venue: venue.Address, Owner: owner})
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, derived := range []*Address{config, rewards, user, stake, venue, submission} {
		require.NoError(t, derived.Authorize())

		account, err := derived.ToAccount()
		require.NoError(t, err)
		assert.False(t, account.IsOnCurve())

		seen[account.PublicKey().ToBase58()] = struct{}{}
	}
	assert.Len(t, seen, 6)

	_, err = d.GetVenueAddress(&GetVenueAddressArgs{Config: config.Address, Name: strings.Repeat("x", 33)})
	assert.Equal(t, solana.ErrMaxSeedLengthExceeded, err)
}

func TestVerify(t *testing.T) {
	program := newRandomAccount(t)
	d := NewDeriver(program)
	mint := newRandomAccount(t).PublicKey().ToBytes()

	config, err := d.GetConfigAddress(&GetConfigAddressArgs{})
	require.NoError(t, err)

	stake, err := d.GetStakeAddress(&GetStakeAddressArgs{Mint: mint, Config: config.Address})
	require.NoError(t, err)

	assert.NoError(t, Verify(program.PublicKey().ToBytes(), stake.Address, stake.Bump, StakePrefix, mint, config.Address))
	assert.Equal(t, ErrInvalidSigner, Verify(program.PublicKey().ToBytes(), stake.Address, stake.Bump, StakePrefix, config.Address, mint))
	assert.Equal(t, ErrInvalidSigner, Verify(newRandomAccount(t).PublicKey().ToBytes(), stake.Address, stake.Bump, StakePrefix, mint, config.Address))

	// Only the canonical bump is expected to be stored, though any bump that
	// re-creates the address is a valid signature.
	if stake.Bump < 255 {
		assert.Equal(t, ErrInvalidSigner, Verify(program.PublicKey().ToBytes(), stake.Address, stake.Bump+1, StakePrefix, mint, config.Address))
	}
}

func newRandomAccount(t *testing.T) *common.Account {
	account, err := common.NewRandomAccount()
	require.NoError(t, err)
	return account
}
