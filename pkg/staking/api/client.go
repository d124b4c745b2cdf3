package api

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/code-payments/staking-server/pkg/retry"
	"github.com/code-payments/staking-server/pkg/retry/backoff"
	"github.com/code-payments/staking-server/pkg/staking/common"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 50 * time.Millisecond
	defaultMaxDelay    = time.Second
)

// Client signs and submits staking instructions on behalf of one account.
//
// Instructions that lose a ledger conflict (codes.Aborted) are signed again and
// resubmitted, up to a fixed number of attempts.
type Client struct {
	client StakingClient
	signer *common.Account
	now    func() time.Time

	maxAttempts uint
}

func NewClient(cc grpc.ClientConnInterface, signer *common.Account) *Client {
	return &Client{
		client:      NewStakingClient(cc),
		signer:      signer,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
}

// Signer is the account the client acts for
func (c *Client) Signer() *common.Account {
	return c.signer
}

func (c *Client) InitializeConfig(ctx context.Context, pointsPerStake, maxStake uint8, freezePeriod uint32) (*InitializeConfigResponse, error) {
	req := &InitializeConfigRequest{
		PointsPerStake: pointsPerStake,
		MaxStake:       maxStake,
		FreezePeriod:   freezePeriod,
	}
	return submit(ctx, c, InitializeConfigMethod, req, c.client.InitializeConfig)
}

func (c *Client) CloseConfig(ctx context.Context) (*CloseConfigResponse, error) {
	return submit(ctx, c, CloseConfigMethod, &CloseConfigRequest{}, c.client.CloseConfig)
}

func (c *Client) InitializeUser(ctx context.Context) (*InitializeUserResponse, error) {
	return submit(ctx, c, InitializeUserMethod, &InitializeUserRequest{}, c.client.InitializeUser)
}

func (c *Client) CloseUser(ctx context.Context) (*CloseUserResponse, error) {
	return submit(ctx, c, CloseUserMethod, &CloseUserRequest{}, c.client.CloseUser)
}

func (c *Client) Stake(ctx context.Context, mint *common.Account) (*StakeResponse, error) {
	req := &StakeRequest{Mint: mint.PublicKey().ToBase58()}
	return submit(ctx, c, StakeMethod, req, c.client.Stake)
}

func (c *Client) Unstake(ctx context.Context, mint *common.Account) (*UnstakeResponse, error) {
	req := &UnstakeRequest{Mint: mint.PublicKey().ToBase58()}
	return submit(ctx, c, UnstakeMethod, req, c.client.Unstake)
}

func (c *Client) Claim(ctx context.Context) (*ClaimResponse, error) {
	return submit(ctx, c, ClaimMethod, &ClaimRequest{}, c.client.Claim)
}

func (c *Client) CreateSubmission(ctx context.Context, venue string, decibels uint16) (*CreateSubmissionResponse, error) {
	req := &CreateSubmissionRequest{
		Venue:    venue,
		Decibels: decibels,
	}
	return submit(ctx, c, CreateSubmissionMethod, req, c.client.CreateSubmission)
}

func (c *Client) CloseSubmission(ctx context.Context, venue string) (*CloseSubmissionResponse, error) {
	req := &CloseSubmissionRequest{Venue: venue}
	return submit(ctx, c, CloseSubmissionMethod, req, c.client.CloseSubmission)
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	resp, err := c.client.GetConfig(ctx, &GetConfigRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Config, nil
}

func (c *Client) GetUserAccount(ctx context.Context) (*UserAccount, error) {
	resp, err := c.client.GetUserAccount(ctx, &GetUserAccountRequest{
		Owner: c.signer.PublicKey().ToBase58(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Account, nil
}

func (c *Client) GetStakeAccount(ctx context.Context, mint *common.Account) (*StakeAccount, error) {
	resp, err := c.client.GetStakeAccount(ctx, &GetStakeAccountRequest{
		Mint: mint.PublicKey().ToBase58(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Account, nil
}

// GetStakeAccounts lists the signer's stake records.
func (c *Client) GetStakeAccounts(ctx context.Context) ([]*StakeAccount, error) {
	resp, err := c.client.GetStakeAccounts(ctx, &GetStakeAccountsRequest{
		Owner: c.signer.PublicKey().ToBase58(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

func (c *Client) GetSubmission(ctx context.Context, venue string) (*Submission, error) {
	resp, err := c.client.GetSubmission(ctx, &GetSubmissionRequest{
		Owner: c.signer.PublicKey().ToBase58(),
		Venue: venue,
	})
	if err != nil {
		return nil, err
	}
	return resp.Submission, nil
}

// Airdrop funds the signer on servers with airdrops enabled.
func (c *Client) Airdrop(ctx context.Context) (*AirdropResponse, error) {
	return submit(ctx, c, AirdropMethod, &AirdropRequest{}, c.client.Airdrop)
}

// MintNft mints a fresh NFT to the signer on servers with airdrops enabled.
func (c *Client) MintNft(ctx context.Context) (*common.Account, error) {
	resp, err := submit(ctx, c, MintNftMethod, &MintNftRequest{}, c.client.MintNft)
	if err != nil {
		return nil, err
	}
	return common.NewAccountFromPublicKeyString(resp.Mint)
}

func submit[Req SignedRequest, Resp any](
	ctx context.Context,
	c *Client,
	fullMethod string,
	req Req,
	call func(context.Context, Req, ...grpc.CallOption) (*Resp, error),
) (*Resp, error) {
	var resp *Resp
	_, err := retry.Retry(
		func() error {
			if err := SignRequest(fullMethod, req, c.signer, c.now()); err != nil {
				return err
			}

			var err error
			resp, err = call(ctx, req)
			return err
		},
		retry.RetriableGRPCCodes(codes.Aborted),
		retry.Context(ctx),
		retry.Limit(c.maxAttempts),
		retry.BackoffWithJitter(backoff.BinaryExponential(defaultBaseDelay), defaultMaxDelay, 0.1),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
