package program

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/staking-server/pkg/solana"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

func TestCreateSubmission(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)
	other := env.newUser(t)

	_, err := env.program.GetVenue(env.ctx, "The Fillmore")
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	_, err = env.program.CreateSubmission(env.ctx, owner, "The Fillmore", 95)
	require.NoError(t, err)

	submission, err := env.program.GetSubmission(env.ctx, "The Fillmore", owner)
	require.NoError(t, err)
	assert.EqualValues(t, owner.PublicKey().ToBytes(), submission.Owner)
	assert.EqualValues(t, 95, submission.Decibels)
	assert.Equal(t, env.clock.Now().Unix(), submission.Timestamp)

	venueAddress, err := env.program.venueAddress("The Fillmore")
	require.NoError(t, err)
	assert.EqualValues(t, venueAddress.PublicKey(), submission.Venue)

	venue, err := env.program.GetVenue(env.ctx, "The Fillmore")
	require.NoError(t, err)
	assert.Equal(t, "The Fillmore", venue.Name)
	assert.EqualValues(t, 1, venue.SubmissionCount)
	assert.Equal(t, venueAddress.Bump, venue.Bump)

	points, staked, submissions := env.getUser(t, owner)
	assert.EqualValues(t, 10, points)
	assert.Zero(t, staked)
	assert.EqualValues(t, 1, submissions)

	// One submission per owner and venue
	_, err = env.program.CreateSubmission(env.ctx, owner, "The Fillmore", 70)
	assert.Equal(t, ledger.ErrAccountAlreadyInitialized, err)

	_, err = env.program.CreateSubmission(env.ctx, other, "The Fillmore", 101)
	require.NoError(t, err)

	_, err = env.program.CreateSubmission(env.ctx, owner, "Red Rocks", 88)
	require.NoError(t, err)

	venue, err = env.program.GetVenue(env.ctx, "The Fillmore")
	require.NoError(t, err)
	assert.EqualValues(t, 2, venue.SubmissionCount)

	points, _, submissions = env.getUser(t, owner)
	assert.EqualValues(t, 20, points)
	assert.EqualValues(t, 2, submissions)

	result, err := env.program.Claim(env.ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 20, result.Amount)
}

func TestCreateSubmission_Validation(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)

	_, err := env.program.CreateSubmission(env.ctx, owner, strings.Repeat("x", 33), 90)
	assert.Equal(t, solana.ErrMaxSeedLengthExceeded, err)

	_, err = env.program.CreateSubmission(env.ctx, owner, strings.Repeat("x", 32), 90)
	require.NoError(t, err)

	stranger := newWallet(t)
	env.airdrop(t, stranger)
	_, err = env.program.CreateSubmission(env.ctx, stranger, "venue", 90)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	_, err = env.program.GetVenue(env.ctx, "venue")
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestCloseSubmission(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)
	other := env.newUser(t)

	_, err := env.program.CreateSubmission(env.ctx, owner, "venue", 90)
	require.NoError(t, err)
	_, err = env.program.CreateSubmission(env.ctx, other, "venue", 91)
	require.NoError(t, err)

	lamportsBefore := env.getLamports(t, owner.PublicKey().ToBase58())

	_, err = env.program.CloseSubmission(env.ctx, owner, "unknown venue")
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	_, err = env.program.CloseSubmission(env.ctx, owner, "venue")
	require.NoError(t, err)

	_, err = env.program.GetSubmission(env.ctx, "venue", owner)
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	_, err = env.program.GetSubmission(env.ctx, "venue", other)
	require.NoError(t, err)

	venue, err := env.program.GetVenue(env.ctx, "venue")
	require.NoError(t, err)
	assert.EqualValues(t, 1, venue.SubmissionCount)

	points, _, submissions := env.getUser(t, owner)
	assert.Zero(t, points)
	assert.Zero(t, submissions)

	assert.Greater(t, env.getLamports(t, owner.PublicKey().ToBase58()), lamportsBefore)

	_, err = env.program.CloseSubmission(env.ctx, owner, "venue")
	assert.Equal(t, ledger.ErrAccountNotFound, err)

	points, _, submissions = env.getUser(t, other)
	assert.EqualValues(t, 10, points)
	assert.EqualValues(t, 1, submissions)
}

func TestCloseSubmission_SaturatingPoints(t *testing.T) {
	env := setup(t, defaultConfigArgs())
	owner := env.newUser(t)

	_, err := env.program.CreateSubmission(env.ctx, owner, "venue", 90)
	require.NoError(t, err)

	_, err = env.program.Claim(env.ctx, owner)
	require.NoError(t, err)

	_, err = env.program.CloseSubmission(env.ctx, owner, "venue")
	require.NoError(t, err)

	points, _, submissions := env.getUser(t, owner)
	assert.Zero(t, points)
	assert.Zero(t, submissions)
	assert.EqualValues(t, 10, env.getRewardBalance(t, owner))
}
