package server

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/solana"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/program"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

var (
	ErrClaimsDisabled   = errors.New("claims are temporarily disabled")
	ErrAirdropsDisabled = errors.New("airdrops are disabled")
)

// toStatusError maps a staking error onto the gRPC status returned to clients.
// Errors that already carry a status pass through untouched.
func toStatusError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	cause := errors.Cause(err)
	switch cause {
	case program.ErrUnauthorized:
		return status.Error(codes.PermissionDenied, cause.Error())
	case program.ErrFreezePeriodNotMet,
		program.ErrMaxStakeReached,
		program.ErrNoPointsToClaim,
		program.ErrUserHasActiveRecords,
		token.ErrAccountFrozen,
		token.ErrNotDelegated:
		return status.Error(codes.FailedPrecondition, cause.Error())
	case program.ErrInvalidAsset,
		program.ErrAssetMismatch,
		token.ErrInvalidMint,
		token.ErrOwnerMismatch,
		token.ErrInsufficientTokenFunds,
		ledger.ErrInvalidAccountOwner,
		solana.ErrMaxSeedLengthExceeded:
		return status.Error(codes.InvalidArgument, cause.Error())
	case ledger.ErrAccountNotFound:
		return status.Error(codes.NotFound, cause.Error())
	case ledger.ErrAccountAlreadyInitialized:
		return status.Error(codes.AlreadyExists, cause.Error())
	case ledger.ErrConflict:
		return status.Error(codes.Aborted, cause.Error())
	case ledger.ErrInsufficientFunds:
		return status.Error(codes.ResourceExhausted, cause.Error())
	case ErrClaimsDisabled, ErrAirdropsDisabled:
		return status.Error(codes.Unavailable, cause.Error())
	}
	return status.Error(codes.Internal, "")
}
