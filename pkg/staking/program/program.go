// Package program implements the staking points ledger: the config store,
// user points accounts, stake and submission records, and reward claims.
//
// Every instruction executes as a single ledger transaction. Domain checks run
// before any write, and a failed instruction leaves no partial state behind.
package program

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/metrics"
	"github.com/code-payments/staking-server/pkg/solana"
	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/pda"
	"github.com/code-payments/staking-server/pkg/staking/token"
)

const (
	metricsStructName = "staking.program"

	instructionEventName = "StakingInstructionCommitted"

	instructionDurationMetricName = "Staking/InstructionDuration/"
	pointsClaimedMetricName       = "Staking/PointsClaimed"

	// RewardsMintDecimals is the precision of the rewards mint created by
	// InitializeConfig.
	RewardsMintDecimals = 6
)

var (
	ErrUnauthorized         = errors.New("signer is not authorized")
	ErrFreezePeriodNotMet   = errors.New("freeze period not met")
	ErrMaxStakeReached      = errors.New("max stake reached")
	ErrNoPointsToClaim      = errors.New("no points to claim")
	ErrUserHasActiveRecords = errors.New("user account has active stake or submission records")
	ErrInvalidAsset         = errors.New("asset is not a held non-fungible token")
	ErrAssetMismatch        = errors.New("stake record does not match the asset")
)

// Clock supplies the current time for freeze period checks and record
// timestamps.
type Clock func() time.Time

// Program executes staking instructions against a ledger.
type Program struct {
	log     *logrus.Entry
	ledger  ledger.Store
	pda     *pda.Deriver
	address string
	clock   Clock
}

func New(store ledger.Store, programAccount *common.Account, clock Clock) *Program {
	if clock == nil {
		clock = time.Now
	}

	return &Program{
		log:     logrus.StandardLogger().WithField("type", "staking/program"),
		ledger:  store,
		pda:     pda.NewDeriver(programAccount),
		address: programAccount.PublicKey().ToBase58(),
		clock:   clock,
	}
}

// Address is the ledger owner of every record the program creates.
func (p *Program) Address() string {
	return p.address
}

// execute runs fn as one ledger transaction and assigns the committed
// instruction a transaction id.
func (p *Program) execute(ctx context.Context, method string, fields logrus.Fields, fn func(ctx context.Context, tx ledger.Tx) error) (uuid.UUID, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, method)
	defer tracer.End()

	id := uuid.New()
	log := p.log.WithFields(fields).WithFields(logrus.Fields{
		"method":         method,
		"transaction_id": id.String(),
	})

	start := time.Now()
	err := p.ledger.ExecuteInTx(ctx, fn)
	metrics.RecordDuration(ctx, instructionDurationMetricName+method, time.Since(start))
	if err != nil {
		switch {
		case isRejection(err):
			log.WithError(err).Debug("instruction rejected")
			metrics.RecordInstruction(method, metrics.ResultRejected)
		case err == ledger.ErrConflict:
			log.WithError(err).Info("instruction lost a ledger conflict")
			metrics.RecordInstruction(method, metrics.ResultConflict)
		default:
			log.WithError(err).Warn("failure executing instruction")
			metrics.RecordInstruction(method, metrics.ResultFailed)
			tracer.OnError(err)
		}
		return uuid.Nil, err
	}

	event := map[string]interface{}{
		"instruction":    method,
		"transaction_id": id.String(),
	}
	for k, v := range fields {
		event[k] = v
	}
	metrics.RecordEvent(ctx, instructionEventName, event)
	metrics.RecordInstruction(method, metrics.ResultCommitted)

	log.Debug("instruction committed")
	return id, nil
}

func isRejection(err error) bool {
	switch errors.Cause(err) {
	case ErrUnauthorized,
		ErrFreezePeriodNotMet,
		ErrMaxStakeReached,
		ErrNoPointsToClaim,
		ErrUserHasActiveRecords,
		ErrInvalidAsset,
		ErrAssetMismatch,
		ledger.ErrAccountNotFound,
		ledger.ErrAccountAlreadyInitialized,
		ledger.ErrInsufficientFunds,
		token.ErrInvalidMint,
		token.ErrOwnerMismatch,
		token.ErrAccountFrozen,
		token.ErrNotDelegated,
		token.ErrInsufficientTokenFunds,
		solana.ErrMaxSeedLengthExceeded:
		return true
	}
	return false
}
