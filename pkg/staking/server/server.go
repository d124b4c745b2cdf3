// Package server exposes the staking program over the staking.v1.Staking gRPC
// service.
package server

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/rate"
	"github.com/code-payments/staking-server/pkg/staking/api"
	"github.com/code-payments/staking-server/pkg/staking/auth"
	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/program"
	"github.com/code-payments/staking-server/pkg/staking/state"
	"github.com/code-payments/staking-server/pkg/sync"
)

const (
	maxRateLimitedSigners = 100_000
	signerLockStripes     = 1024
)

type server struct {
	log  *logrus.Entry
	conf *conf

	program *program.Program
	auth    *auth.RPCSignatureVerifier

	limiter     rate.Limiter
	signerLocks *sync.StripedLock
}

func NewStakingServer(stakingProgram *program.Program, configProvider ConfigProvider) api.StakingServer {
	conf := configProvider()

	var limiter rate.Limiter = &rate.NoLimiter{}
	if limit := conf.signerRateLimit.Get(context.Background()); limit > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(limit), int(math.Ceil(limit)), maxRateLimitedSigners)
	}

	return &server{
		log:         logrus.StandardLogger().WithField("type", "staking/server"),
		conf:        conf,
		program:     stakingProgram,
		auth:        auth.NewRPCSignatureVerifier(conf.maxRequestAge),
		limiter:     limiter,
		signerLocks: sync.NewStripedLock(signerLockStripes),
	}
}

func (s *server) InitializeConfig(ctx context.Context, req *api.InitializeConfigRequest) (*api.InitializeConfigResponse, error) {
	log := s.log.WithField("method", "InitializeConfig")

	admin, err := s.authenticate(ctx, api.InitializeConfigMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(admin)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("admin", admin.PublicKey().ToBase58())

	id, err := s.program.InitializeConfig(ctx, admin, &program.InitializeConfigArgs{
		PointsPerStake: req.PointsPerStake,
		MaxStake:       req.MaxStake,
		FreezePeriod:   req.FreezePeriod,
	})
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.InitializeConfigResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) CloseConfig(ctx context.Context, req *api.CloseConfigRequest) (*api.CloseConfigResponse, error) {
	log := s.log.WithField("method", "CloseConfig")

	admin, err := s.authenticate(ctx, api.CloseConfigMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(admin)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("admin", admin.PublicKey().ToBase58())

	id, err := s.program.CloseConfig(ctx, admin)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.CloseConfigResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) InitializeUser(ctx context.Context, req *api.InitializeUserRequest) (*api.InitializeUserResponse, error) {
	log := s.log.WithField("method", "InitializeUser")

	owner, err := s.authenticate(ctx, api.InitializeUserMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	id, err := s.program.InitializeUser(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.InitializeUserResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) CloseUser(ctx context.Context, req *api.CloseUserRequest) (*api.CloseUserResponse, error) {
	log := s.log.WithField("method", "CloseUser")

	owner, err := s.authenticate(ctx, api.CloseUserMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	id, err := s.program.CloseUser(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.CloseUserResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) Stake(ctx context.Context, req *api.StakeRequest) (*api.StakeResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "Stake",
		"mint":   req.Mint,
	})

	owner, err := s.authenticate(ctx, api.StakeMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	mint, err := decodePublicKey(req.Mint)
	if err != nil {
		return nil, err
	}

	id, err := s.program.Stake(ctx, owner, mint)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.StakeResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) Unstake(ctx context.Context, req *api.UnstakeRequest) (*api.UnstakeResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "Unstake",
		"mint":   req.Mint,
	})

	owner, err := s.authenticate(ctx, api.UnstakeMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	mint, err := decodePublicKey(req.Mint)
	if err != nil {
		return nil, err
	}

	id, err := s.program.Unstake(ctx, owner, mint)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.UnstakeResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) Claim(ctx context.Context, req *api.ClaimRequest) (*api.ClaimResponse, error) {
	log := s.log.WithField("method", "Claim")

	owner, err := s.authenticate(ctx, api.ClaimMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	if s.conf.disableClaims.Get(ctx) {
		return nil, s.handleError(log, ErrClaimsDisabled)
	}

	result, err := s.program.Claim(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	log.WithField("amount", result.Amount).Info("points claimed")

	return &api.ClaimResponse{
		Transaction: toTransaction(result.TransactionID),
		Amount:      result.Amount,
	}, nil
}

func (s *server) CreateSubmission(ctx context.Context, req *api.CreateSubmissionRequest) (*api.CreateSubmissionResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "CreateSubmission",
		"venue":  req.Venue,
	})

	owner, err := s.authenticate(ctx, api.CreateSubmissionMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	id, err := s.program.CreateSubmission(ctx, owner, req.Venue, req.Decibels)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.CreateSubmissionResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) CloseSubmission(ctx context.Context, req *api.CloseSubmissionRequest) (*api.CloseSubmissionResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "CloseSubmission",
		"venue":  req.Venue,
	})

	owner, err := s.authenticate(ctx, api.CloseSubmissionMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	id, err := s.program.CloseSubmission(ctx, owner, req.Venue)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.CloseSubmissionResponse{Transaction: toTransaction(id)}, nil
}

func (s *server) GetConfig(ctx context.Context, _ *api.GetConfigRequest) (*api.GetConfigResponse, error) {
	log := s.log.WithField("method", "GetConfig")

	config, err := s.program.GetConfig(ctx)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.GetConfigResponse{
		Config: &api.Config{
			Admin:          base58.Encode(config.Admin),
			RewardsMint:    base58.Encode(config.RewardsMint),
			PointsPerStake: config.PointsPerStake,
			MaxStake:       config.MaxStake,
			FreezePeriod:   config.FreezePeriod,
		},
	}, nil
}

func (s *server) GetUserAccount(ctx context.Context, req *api.GetUserAccountRequest) (*api.GetUserAccountResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "GetUserAccount",
		"owner":  req.Owner,
	})

	owner, err := common.NewAccountFromPublicKeyString(req.Owner)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid owner")
	}

	user, err := s.program.GetUserAccount(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	balance, err := s.program.GetRewardBalance(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.GetUserAccountResponse{
		Account: &api.UserAccount{
			Owner:            base58.Encode(user.Owner),
			Points:           user.Points,
			AmountStaked:     user.AmountStaked,
			NumOfSubmissions: user.NumOfSubmissions,
			RewardBalance:    balance,
		},
	}, nil
}

func (s *server) GetStakeAccount(ctx context.Context, req *api.GetStakeAccountRequest) (*api.GetStakeAccountResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "GetStakeAccount",
		"mint":   req.Mint,
	})

	mint, err := decodePublicKey(req.Mint)
	if err != nil {
		return nil, err
	}

	stake, err := s.program.GetStakeAccount(ctx, mint)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.GetStakeAccountResponse{Account: toStakeAccount(stake)}, nil
}

func (s *server) GetStakeAccounts(ctx context.Context, req *api.GetStakeAccountsRequest) (*api.GetStakeAccountsResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "GetStakeAccounts",
		"owner":  req.Owner,
	})

	owner, err := decodePublicKey(req.Owner)
	if err != nil {
		return nil, err
	}

	stakes, err := s.program.GetStakeAccounts(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	accounts := make([]*api.StakeAccount, len(stakes))
	for i, stake := range stakes {
		accounts[i] = toStakeAccount(stake)
	}
	return &api.GetStakeAccountsResponse{Accounts: accounts}, nil
}

func (s *server) GetSubmission(ctx context.Context, req *api.GetSubmissionRequest) (*api.GetSubmissionResponse, error) {
	log := s.log.WithFields(logrus.Fields{
		"method": "GetSubmission",
		"owner":  req.Owner,
		"venue":  req.Venue,
	})

	owner, err := common.NewAccountFromPublicKeyString(req.Owner)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid owner")
	}

	submission, err := s.program.GetSubmission(ctx, req.Venue, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	venue, err := s.program.GetVenue(ctx, req.Venue)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	return &api.GetSubmissionResponse{
		Submission: &api.Submission{
			Owner:            base58.Encode(submission.Owner),
			Venue:            venue.Name,
			Decibels:         submission.Decibels,
			Timestamp:        submission.Timestamp,
			VenueSubmissions: venue.SubmissionCount,
		},
	}, nil
}

// authenticate verifies req was signed for fullMethod and returns the signer
func (s *server) authenticate(ctx context.Context, fullMethod string, req api.SignedRequest) (*common.Account, error) {
	reqAuth := req.GetAuth()

	signer, err := common.NewAccountFromPublicKeyString(reqAuth.Signer)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid signer")
	}

	signature, err := reqAuth.DecodeSignature()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid signature")
	}

	message, err := api.MessageToSign(fullMethod, req)
	if err != nil {
		s.log.WithError(err).WithField("method", fullMethod).Warn("failure computing signed message")
		return nil, status.Error(codes.Internal, "")
	}

	if err := s.auth.Authenticate(ctx, signer, message, signature, reqAuth.SignedAt()); err != nil {
		return nil, err
	}
	return signer, nil
}

// admit rate limits signer and serializes the instructions it signs. The
// returned func releases the signer.
func (s *server) admit(signer *common.Account) (func(), error) {
	if !s.limiter.Allow(signer.PublicKey().ToBase58()) {
		return nil, status.Error(codes.ResourceExhausted, "signer rate limit exceeded")
	}
	return s.signerLocks.Lock(signer.PublicKey().ToBytes()), nil
}

func (s *server) handleError(log *logrus.Entry, err error) error {
	statusErr := toStatusError(err)
	switch status.Code(statusErr) {
	case codes.Internal:
		log.WithError(err).Warn("failure executing staking instruction")
	case codes.Aborted:
		log.WithError(err).Info("staking instruction conflicted with another")
	default:
		log.WithError(err).Debug("staking instruction rejected")
	}
	return statusErr
}

func toStakeAccount(stake *state.StakeAccount) *api.StakeAccount {
	return &api.StakeAccount{
		Owner:    base58.Encode(stake.Owner),
		Mint:     base58.Encode(stake.Mint),
		StakedAt: stake.StakedAt,
	}
}

func decodePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		return nil, status.Error(codes.InvalidArgument, "invalid public key")
	}
	return decoded, nil
}

func toTransaction(id uuid.UUID) api.Transaction {
	return api.Transaction{ID: id.String()}
}
