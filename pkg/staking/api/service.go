// Package api defines the staking.v1.Staking gRPC service. Messages are plain
// Go structs exchanged with a JSON codec, and mutating requests are signed by
// the account they act for.
package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "staking.v1.Staking"

// Full method names
const (
	InitializeConfigMethod = "/" + ServiceName + "/InitializeConfig"
	CloseConfigMethod      = "/" + ServiceName + "/CloseConfig"
	InitializeUserMethod   = "/" + ServiceName + "/InitializeUser"
	CloseUserMethod        = "/" + ServiceName + "/CloseUser"
	StakeMethod            = "/" + ServiceName + "/Stake"
	UnstakeMethod          = "/" + ServiceName + "/Unstake"
	ClaimMethod            = "/" + ServiceName + "/Claim"
	CreateSubmissionMethod = "/" + ServiceName + "/CreateSubmission"
	CloseSubmissionMethod  = "/" + ServiceName + "/CloseSubmission"
	GetConfigMethod        = "/" + ServiceName + "/GetConfig"
	GetUserAccountMethod   = "/" + ServiceName + "/GetUserAccount"
	GetStakeAccountMethod  = "/" + ServiceName + "/GetStakeAccount"
	GetStakeAccountsMethod = "/" + ServiceName + "/GetStakeAccounts"
	GetSubmissionMethod    = "/" + ServiceName + "/GetSubmission"
	AirdropMethod          = "/" + ServiceName + "/Airdrop"
	MintNftMethod          = "/" + ServiceName + "/MintNft"
)

// StakingServer is the server API for the staking service
type StakingServer interface {
	InitializeConfig(context.Context, *InitializeConfigRequest) (*InitializeConfigResponse, error)
	CloseConfig(context.Context, *CloseConfigRequest) (*CloseConfigResponse, error)
	InitializeUser(context.Context, *InitializeUserRequest) (*InitializeUserResponse, error)
	CloseUser(context.Context, *CloseUserRequest) (*CloseUserResponse, error)
	Stake(context.Context, *StakeRequest) (*StakeResponse, error)
	Unstake(context.Context, *UnstakeRequest) (*UnstakeResponse, error)
	Claim(context.Context, *ClaimRequest) (*ClaimResponse, error)
	CreateSubmission(context.Context, *CreateSubmissionRequest) (*CreateSubmissionResponse, error)
	CloseSubmission(context.Context, *CloseSubmissionRequest) (*CloseSubmissionResponse, error)
	GetConfig(context.Context, *GetConfigRequest) (*GetConfigResponse, error)
	GetUserAccount(context.Context, *GetUserAccountRequest) (*GetUserAccountResponse, error)
	GetStakeAccount(context.Context, *GetStakeAccountRequest) (*GetStakeAccountResponse, error)
	GetStakeAccounts(context.Context, *GetStakeAccountsRequest) (*GetStakeAccountsResponse, error)
	GetSubmission(context.Context, *GetSubmissionRequest) (*GetSubmissionResponse, error)

	// Development only, rejected unless airdrops are enabled
	Airdrop(context.Context, *AirdropRequest) (*AirdropResponse, error)
	MintNft(context.Context, *MintNftRequest) (*MintNftResponse, error)
}

func RegisterStakingServer(s grpc.ServiceRegistrar, srv StakingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for the staking service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StakingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "InitializeConfig", Handler: unaryHandler(InitializeConfigMethod, StakingServer.InitializeConfig)},
		{MethodName: "CloseConfig", Handler: unaryHandler(CloseConfigMethod, StakingServer.CloseConfig)},
		{MethodName: "InitializeUser", Handler: unaryHandler(InitializeUserMethod, StakingServer.InitializeUser)},
		{MethodName: "CloseUser", Handler: unaryHandler(CloseUserMethod, StakingServer.CloseUser)},
		{MethodName: "Stake", Handler: unaryHandler(StakeMethod, StakingServer.Stake)},
		{MethodName: "Unstake", Handler: unaryHandler(UnstakeMethod, StakingServer.Unstake)},
		{MethodName: "Claim", Handler: unaryHandler(ClaimMethod, StakingServer.Claim)},
		{MethodName: "CreateSubmission", Handler: unaryHandler(CreateSubmissionMethod, StakingServer.CreateSubmission)},
		{MethodName: "CloseSubmission", Handler: unaryHandler(CloseSubmissionMethod, StakingServer.CloseSubmission)},
		{MethodName: "GetConfig", Handler: unaryHandler(GetConfigMethod, StakingServer.GetConfig)},
		{MethodName: "GetUserAccount", Handler: unaryHandler(GetUserAccountMethod, StakingServer.GetUserAccount)},
		{MethodName: "GetStakeAccount", Handler: unaryHandler(GetStakeAccountMethod, StakingServer.GetStakeAccount)},
		{MethodName: "GetStakeAccounts", Handler: unaryHandler(GetStakeAccountsMethod, StakingServer.GetStakeAccounts)},
		{MethodName: "GetSubmission", Handler: unaryHandler(GetSubmissionMethod, StakingServer.GetSubmission)},
		{MethodName: "Airdrop", Handler: unaryHandler(AirdropMethod, StakingServer.Airdrop)},
		{MethodName: "MintNft", Handler: unaryHandler(MintNftMethod, StakingServer.MintNft)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "staking/v1/staking.json",
}

// methodHandler matches grpc.MethodDesc.Handler.
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryHandler[Req, Resp any](fullMethod string, call func(StakingServer, context.Context, *Req) (*Resp, error)) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StakingServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StakingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// StakingClient is the client API for the staking service. Calls use the JSON
// codec.
type StakingClient interface {
	InitializeConfig(ctx context.Context, in *InitializeConfigRequest, opts ...grpc.CallOption) (*InitializeConfigResponse, error)
	CloseConfig(ctx context.Context, in *CloseConfigRequest, opts ...grpc.CallOption) (*CloseConfigResponse, error)
	InitializeUser(ctx context.Context, in *InitializeUserRequest, opts ...grpc.CallOption) (*InitializeUserResponse, error)
	CloseUser(ctx context.Context, in *CloseUserRequest, opts ...grpc.CallOption) (*CloseUserResponse, error)
	Stake(ctx context.Context, in *StakeRequest, opts ...grpc.CallOption) (*StakeResponse, error)
	Unstake(ctx context.Context, in *UnstakeRequest, opts ...grpc.CallOption) (*UnstakeResponse, error)
	Claim(ctx context.Context, in *ClaimRequest, opts ...grpc.CallOption) (*ClaimResponse, error)
	CreateSubmission(ctx context.Context, in *CreateSubmissionRequest, opts ...grpc.CallOption) (*CreateSubmissionResponse, error)
	CloseSubmission(ctx context.Context, in *CloseSubmissionRequest, opts ...grpc.CallOption) (*CloseSubmissionResponse, error)
	GetConfig(ctx context.Context, in *GetConfigRequest, opts ...grpc.CallOption) (*GetConfigResponse, error)
	GetUserAccount(ctx context.Context, in *GetUserAccountRequest, opts ...grpc.CallOption) (*GetUserAccountResponse, error)
	GetStakeAccount(ctx context.Context, in *GetStakeAccountRequest, opts ...grpc.CallOption) (*GetStakeAccountResponse, error)
	GetStakeAccounts(ctx context.Context, in *GetStakeAccountsRequest, opts ...grpc.CallOption) (*GetStakeAccountsResponse, error)
	GetSubmission(ctx context.Context, in *GetSubmissionRequest, opts ...grpc.CallOption) (*GetSubmissionResponse, error)
	Airdrop(ctx context.Context, in *AirdropRequest, opts ...grpc.CallOption) (*AirdropResponse, error)
	MintNft(ctx context.Context, in *MintNftRequest, opts ...grpc.CallOption) (*MintNftResponse, error)
}

type stakingClient struct {
	cc grpc.ClientConnInterface
}

func NewStakingClient(cc grpc.ClientConnInterface) StakingClient {
	return &stakingClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *stakingClient) InitializeConfig(ctx context.Context, in *InitializeConfigRequest, opts ...grpc.CallOption) (*InitializeConfigResponse, error) {
	return invoke[InitializeConfigResponse](ctx, c.cc, InitializeConfigMethod, in, opts)
}

func (c *stakingClient) CloseConfig(ctx context.Context, in *CloseConfigRequest, opts ...grpc.CallOption) (*CloseConfigResponse, error) {
	return invoke[CloseConfigResponse](ctx, c.cc, CloseConfigMethod, in, opts)
}

func (c *stakingClient) InitializeUser(ctx context.Context, in *InitializeUserRequest, opts ...grpc.CallOption) (*InitializeUserResponse, error) {
	return invoke[InitializeUserResponse](ctx, c.cc, InitializeUserMethod, in, opts)
}

func (c *stakingClient) CloseUser(ctx context.Context, in *CloseUserRequest, opts ...grpc.CallOption) (*CloseUserResponse, error) {
	return invoke[CloseUserResponse](ctx, c.cc, CloseUserMethod, in, opts)
}

func (c *stakingClient) Stake(ctx context.Context, in *StakeRequest, opts ...grpc.CallOption) (*StakeResponse, error) {
	return invoke[StakeResponse](ctx, c.cc, StakeMethod, in, opts)
}

func (c *stakingClient) Unstake(ctx context.Context, in *UnstakeRequest, opts ...grpc.CallOption) (*UnstakeResponse, error) {
	return invoke[UnstakeResponse](ctx, c.cc, UnstakeMethod, in, opts)
}

func (c *stakingClient) Claim(ctx context.Context, in *ClaimRequest, opts ...grpc.CallOption) (*ClaimResponse, error) {
	return invoke[ClaimResponse](ctx, c.cc, ClaimMethod, in, opts)
}

func (c *stakingClient) CreateSubmission(ctx context.Context, in *CreateSubmissionRequest, opts ...grpc.CallOption) (*CreateSubmissionResponse, error) {
	return invoke[CreateSubmissionResponse](ctx, c.cc, CreateSubmissionMethod, in, opts)
}

func (c *stakingClient) CloseSubmission(ctx context.Context, in *CloseSubmissionRequest, opts ...grpc.CallOption) (*CloseSubmissionResponse, error) {
	return invoke[CloseSubmissionResponse](ctx, c.cc, CloseSubmissionMethod, in, opts)
}

func (c *stakingClient) GetConfig(ctx context.Context, in *GetConfigRequest, opts ...grpc.CallOption) (*GetConfigResponse, error) {
	return invoke[GetConfigResponse](ctx, c.cc, GetConfigMethod, in, opts)
}

func (c *stakingClient) GetUserAccount(ctx context.Context, in *GetUserAccountRequest, opts ...grpc.CallOption) (*GetUserAccountResponse, error) {
	return invoke[GetUserAccountResponse](ctx, c.cc, GetUserAccountMethod, in, opts)
}

func (c *stakingClient) GetStakeAccount(ctx context.Context, in *GetStakeAccountRequest, opts ...grpc.CallOption) (*GetStakeAccountResponse, error) {
	return invoke[GetStakeAccountResponse](ctx, c.cc, GetStakeAccountMethod, in, opts)
}

func (c *stakingClient) GetStakeAccounts(ctx context.Context, in *GetStakeAccountsRequest, opts ...grpc.CallOption) (*GetStakeAccountsResponse, error) {
	return invoke[GetStakeAccountsResponse](ctx, c.cc, GetStakeAccountsMethod, in, opts)
}

func (c *stakingClient) GetSubmission(ctx context.Context, in *GetSubmissionRequest, opts ...grpc.CallOption) (*GetSubmissionResponse, error) {
	return invoke[GetSubmissionResponse](ctx, c.cc, GetSubmissionMethod, in, opts)
}

func (c *stakingClient) Airdrop(ctx context.Context, in *AirdropRequest, opts ...grpc.CallOption) (*AirdropResponse, error) {
	return invoke[AirdropResponse](ctx, c.cc, AirdropMethod, in, opts)
}

func (c *stakingClient) MintNft(ctx context.Context, in *MintNftRequest, opts ...grpc.CallOption) (*MintNftResponse, error) {
	return invoke[MintNftResponse](ctx, c.cc, MintNftMethod, in, opts)
}
