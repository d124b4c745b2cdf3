package server

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/solana"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/program"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

func TestToStatusError(t *testing.T) {
	assert.NoError(t, toStatusError(nil))

	for _, tc := range []struct {
		err      error
		expected codes.Code
	}{
		{program.ErrUnauthorized, codes.PermissionDenied},
		{program.ErrFreezePeriodNotMet, codes.FailedPrecondition},
		{program.ErrMaxStakeReached, codes.FailedPrecondition},
		{program.ErrNoPointsToClaim, codes.FailedPrecondition},
		{program.ErrUserHasActiveRecords, codes.FailedPrecondition},
		{token.ErrAccountFrozen, codes.FailedPrecondition},
		{program.ErrInvalidAsset, codes.InvalidArgument},
		{program.ErrAssetMismatch, codes.InvalidArgument},
		{token.ErrInvalidMint, codes.InvalidArgument},
		{solana.ErrMaxSeedLengthExceeded, codes.InvalidArgument},
		{ledger.ErrAccountNotFound, codes.NotFound},
		{ledger.ErrAccountAlreadyInitialized, codes.AlreadyExists},
		{ledger.ErrConflict, codes.Aborted},
		{ledger.ErrInsufficientFunds, codes.ResourceExhausted},
		{ErrClaimsDisabled, codes.Unavailable},
		{ErrAirdropsDisabled, codes.Unavailable},
		{errors.Wrap(ledger.ErrConflict, "committing"), codes.Aborted},
		{errors.New("disk on fire"), codes.Internal},
		{status.Error(codes.Unauthenticated, "bad signature"), codes.Unauthenticated},
	} {
		assert.Equal(t, tc.expected, status.Code(toStatusError(tc.err)), tc.err.Error())
	}
}
