package api

// Transaction is the result of a committed mutating instruction
type Transaction struct {
	ID string `json:"id" validate:"required,uuid4"`
}

type InitializeConfigRequest struct {
	Auth `json:"auth"`

	PointsPerStake uint8  `json:"points_per_stake"`
	MaxStake       uint8  `json:"max_stake" validate:"gt=0"`
	FreezePeriod   uint32 `json:"freeze_period"`
}

type InitializeConfigResponse struct {
	Transaction Transaction `json:"transaction"`
}

type CloseConfigRequest struct {
	Auth `json:"auth"`
}

type CloseConfigResponse struct {
	Transaction Transaction `json:"transaction"`
}

type InitializeUserRequest struct {
	Auth `json:"auth"`
}

type InitializeUserResponse struct {
	Transaction Transaction `json:"transaction"`
}

type CloseUserRequest struct {
	Auth `json:"auth"`
}

type CloseUserResponse struct {
	Transaction Transaction `json:"transaction"`
}

type StakeRequest struct {
	Auth `json:"auth"`

	// Mint is the base58 address of the NFT to stake
	Mint string `json:"mint" validate:"required,pubkey"`
}

type StakeResponse struct {
	Transaction Transaction `json:"transaction"`
}

type UnstakeRequest struct {
	Auth `json:"auth"`

	Mint string `json:"mint" validate:"required,pubkey"`
}

type UnstakeResponse struct {
	Transaction Transaction `json:"transaction"`
}

type ClaimRequest struct {
	Auth `json:"auth"`
}

type ClaimResponse struct {
	Transaction Transaction `json:"transaction"`

	// Amount is the number of rewards mint units issued
	Amount uint64 `json:"amount" validate:"gt=0"`
}

type CreateSubmissionRequest struct {
	Auth `json:"auth"`

	Venue    string `json:"venue" validate:"required,max=32"`
	Decibels uint16 `json:"decibels"`
}

type CreateSubmissionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type CloseSubmissionRequest struct {
	Auth `json:"auth"`

	Venue string `json:"venue" validate:"required,max=32"`
}

type CloseSubmissionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type Config struct {
	Admin          string `json:"admin" validate:"required,pubkey"`
	RewardsMint    string `json:"rewards_mint" validate:"required,pubkey"`
	PointsPerStake uint8  `json:"points_per_stake"`
	MaxStake       uint8  `json:"max_stake"`
	FreezePeriod   uint32 `json:"freeze_period"`
}

type GetConfigRequest struct{}

type GetConfigResponse struct {
	Config *Config `json:"config" validate:"required"`
}

type UserAccount struct {
	Owner            string `json:"owner" validate:"required,pubkey"`
	Points           uint32 `json:"points"`
	AmountStaked     uint8  `json:"amount_staked"`
	NumOfSubmissions uint16 `json:"num_of_submissions"`

	// RewardBalance is the owner's rewards mint balance
	RewardBalance uint64 `json:"reward_balance"`
}

type GetUserAccountRequest struct {
	Owner string `json:"owner" validate:"required,pubkey"`
}

type GetUserAccountResponse struct {
	Account *UserAccount `json:"account" validate:"required"`
}

type StakeAccount struct {
	Owner    string `json:"owner" validate:"required,pubkey"`
	Mint     string `json:"mint" validate:"required,pubkey"`
	StakedAt int64  `json:"staked_at"`
}

type GetStakeAccountRequest struct {
	Mint string `json:"mint" validate:"required,pubkey"`
}

type GetStakeAccountResponse struct {
	Account *StakeAccount `json:"account" validate:"required"`
}

type GetStakeAccountsRequest struct {
	Owner string `json:"owner" validate:"required,pubkey"`
}

// GetStakeAccountsResponse lists stake records oldest first. Accounts is empty
// when the owner has nothing staked.
type GetStakeAccountsResponse struct {
	Accounts []*StakeAccount `json:"accounts" validate:"dive,required"`
}

type Submission struct {
	Owner     string `json:"owner" validate:"required,pubkey"`
	Venue     string `json:"venue" validate:"required"`
	Decibels  uint16 `json:"decibels"`
	Timestamp int64  `json:"timestamp"`

	// VenueSubmissions is the number of live submissions for the venue
	VenueSubmissions uint32 `json:"venue_submissions"`
}

type GetSubmissionRequest struct {
	Owner string `json:"owner" validate:"required,pubkey"`
	Venue string `json:"venue" validate:"required,max=32"`
}

type GetSubmissionResponse struct {
	Submission *Submission `json:"submission" validate:"required"`
}

type AirdropRequest struct {
	Auth `json:"auth"`
}

type AirdropResponse struct {
	Transaction Transaction `json:"transaction"`

	// Lamports is the amount credited to the signer
	Lamports uint64 `json:"lamports"`
}

type MintNftRequest struct {
	Auth `json:"auth"`
}

type MintNftResponse struct {
	Transaction Transaction `json:"transaction"`

	// Mint is the base58 address of the NFT minted to the signer
	Mint string `json:"mint"`
}
