package api

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"

	"github.com/code-payments/staking-server/pkg/grpc/validation"
	"github.com/code-payments/staking-server/pkg/staking/common"
)

func TestCodec_Registered(t *testing.T) {
	registered := encoding.GetCodec(CodecName)
	require.NotNil(t, registered)

	req := &StakeRequest{Mint: "mint"}
	encoded, err := registered.Marshal(req)
	require.NoError(t, err)

	var decoded StakeRequest
	require.NoError(t, registered.Unmarshal(encoded, &decoded))
	assert.Equal(t, "mint", decoded.Mint)
}

func TestSignRequest_HappyPath(t *testing.T) {
	signer, err := common.NewRandomAccount()
	require.NoError(t, err)
	mint, err := common.NewRandomAccount()
	require.NoError(t, err)

	signedAt := time.Unix(1700000000, 0)
	req := &StakeRequest{Mint: mint.PublicKey().ToBase58()}
	require.NoError(t, SignRequest(StakeMethod, req, signer, signedAt))

	assert.Equal(t, signer.PublicKey().ToBase58(), req.Signer)
	assert.EqualValues(t, 1700000000, req.Timestamp)
	assert.Equal(t, signedAt, req.SignedAt())

	signature, err := req.DecodeSignature()
	require.NoError(t, err)

	message, err := MessageToSign(StakeMethod, req)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(signer.PublicKey().ToBytes(), message, signature))

	// The signature is restored after computing the message
	assert.Equal(t, base58.Encode(signature), req.Signature)

	require.NoError(t, validation.Validate(req))
}

func TestSignRequest_BoundToMethodAndContent(t *testing.T) {
	signer, err := common.NewRandomAccount()
	require.NoError(t, err)
	mint, err := common.NewRandomAccount()
	require.NoError(t, err)

	req := &StakeRequest{Mint: mint.PublicKey().ToBase58()}
	require.NoError(t, SignRequest(StakeMethod, req, signer, time.Now()))
	signature, err := req.DecodeSignature()
	require.NoError(t, err)

	message, err := MessageToSign(UnstakeMethod, req)
	require.NoError(t, err)
	assert.False(t, ed25519.Verify(signer.PublicKey().ToBytes(), message, signature))

	other, err := common.NewRandomAccount()
	require.NoError(t, err)
	req.Mint = other.PublicKey().ToBase58()
	message, err = MessageToSign(StakeMethod, req)
	require.NoError(t, err)
	assert.False(t, ed25519.Verify(signer.PublicKey().ToBytes(), message, signature))
}

func TestSignRequest_UniquePerSigning(t *testing.T) {
	signer, err := common.NewRandomAccount()
	require.NoError(t, err)

	signedAt := time.Unix(1700000000, 0)
	req := &ClaimRequest{}

	require.NoError(t, SignRequest(ClaimMethod, req, signer, signedAt))
	first := req.Signature

	require.NoError(t, SignRequest(ClaimMethod, req, signer, signedAt))
	assert.NotEqual(t, first, req.Signature)

	signature, err := req.DecodeSignature()
	require.NoError(t, err)
	message, err := MessageToSign(ClaimMethod, req)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(signer.PublicKey().ToBytes(), message, signature))
}

func TestSignRequest_NoPrivateKey(t *testing.T) {
	signer, err := common.NewRandomAccount()
	require.NoError(t, err)

	public, err := common.NewAccountFromPublicKey(signer.PublicKey())
	require.NoError(t, err)

	assert.Error(t, SignRequest(ClaimMethod, &ClaimRequest{}, public, time.Now()))
}

func TestDecodeSignature_Invalid(t *testing.T) {
	for _, value := range []string{
		"",
		"0OIl",
		base58.Encode(make([]byte, ed25519.SignatureSize-1)),
	} {
		auth := &Auth{Signature: value}
		_, err := auth.DecodeSignature()
		assert.Error(t, err)
	}
}

func TestValidation(t *testing.T) {
	signer, err := common.NewRandomAccount()
	require.NoError(t, err)

	valid := &CreateSubmissionRequest{Venue: "the-venue", Decibels: 90}
	require.NoError(t, SignRequest(CreateSubmissionMethod, valid, signer, time.Now()))
	assert.NoError(t, validation.Validate(valid))

	for _, mutate := range []func(r *CreateSubmissionRequest){
		func(r *CreateSubmissionRequest) { r.Venue = "" },
		func(r *CreateSubmissionRequest) { r.Venue = "a-venue-name-that-is-longer-than-the-seed-limit" },
		func(r *CreateSubmissionRequest) { r.Signer = "" },
		func(r *CreateSubmissionRequest) { r.Signer = base58.Encode(make([]byte, 31)) },
		func(r *CreateSubmissionRequest) { r.Signature = "" },
		func(r *CreateSubmissionRequest) { r.Signature = signer.PublicKey().ToBase58() },
		func(r *CreateSubmissionRequest) { r.Timestamp = 0 },
		func(r *CreateSubmissionRequest) { r.Nonce = "" },
	} {
		cloned := *valid
		mutate(&cloned)
		assert.Error(t, validation.Validate(&cloned))
	}

	assert.Error(t, validation.Validate(&GetUserAccountRequest{Owner: "not-base58-0OIl"}))
	assert.Error(t, validation.Validate(&ClaimResponse{Transaction: Transaction{ID: uuid.New().String()}}))
	assert.Error(t, validation.Validate(&ClaimResponse{Transaction: Transaction{ID: "id"}, Amount: 1}))
	assert.NoError(t, validation.Validate(&ClaimResponse{Transaction: Transaction{ID: uuid.New().String()}, Amount: 1}))
	assert.Error(t, validation.Validate(&GetConfigResponse{}))
}

func TestMessageEncoding(t *testing.T) {
	req := &UnstakeRequest{
		Auth: Auth{Signer: "signer", Timestamp: 1, Nonce: "nonce", Signature: "signature"},
		Mint: "mint",
	}

	encoded, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth":{"signer":"signer","timestamp":1,"nonce":"nonce","signature":"signature"},"mint":"mint"}`, string(encoded))
}
