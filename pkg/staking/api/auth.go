package api

import (
	"crypto/ed25519"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-server/pkg/staking/common"
)

// Auth identifies and authenticates the signer of a mutating request
type Auth struct {
	// Signer is the base58 public key of the account the request acts for
	Signer string `json:"signer" validate:"required,pubkey"`

	// Timestamp is the unix time the request was signed at
	Timestamp int64 `json:"timestamp" validate:"gt=0"`

	// Nonce makes every signing unique, so resubmissions carry fresh
	// signatures
	Nonce string `json:"nonce" validate:"required,uuid4"`

	// Signature is the base58 ed25519 signature over MessageToSign
	Signature string `json:"signature" validate:"required,signature"`
}

func (a *Auth) GetAuth() *Auth {
	return a
}

// SignedAt is the time the request was signed at
func (a *Auth) SignedAt() time.Time {
	return time.Unix(a.Timestamp, 0)
}

// SignedRequest is a request carrying Auth
type SignedRequest interface {
	GetAuth() *Auth
}

// MessageToSign is the message signed by the request's signer: the full gRPC
// method name followed by the JSON encoded request with an empty signature.
func MessageToSign(fullMethod string, req SignedRequest) ([]byte, error) {
	auth := req.GetAuth()

	signature := auth.Signature
	auth.Signature = ""
	defer func() {
		auth.Signature = signature
	}()

	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding request")
	}

	message := make([]byte, 0, len(fullMethod)+1+len(encoded))
	message = append(message, fullMethod...)
	message = append(message, '\n')
	message = append(message, encoded...)
	return message, nil
}

// SignRequest sets req's Auth for signer at signedAt
func SignRequest(fullMethod string, req SignedRequest, signer *common.Account, signedAt time.Time) error {
	auth := req.GetAuth()
	auth.Signer = signer.PublicKey().ToBase58()
	auth.Timestamp = signedAt.Unix()
	auth.Nonce = uuid.NewString()

	message, err := MessageToSign(fullMethod, req)
	if err != nil {
		return err
	}

	signature, err := signer.Sign(message)
	if err != nil {
		return errors.Wrap(err, "error signing request")
	}

	auth.Signature = base58.Encode(signature)
	return nil
}

// DecodeSignature decodes the request's base58 signature
func (a *Auth) DecodeSignature() ([]byte, error) {
	decoded, err := base58.Decode(a.Signature)
	if err != nil {
		return nil, err
	}
	if len(decoded) != ed25519.SignatureSize {
		return nil, errors.Errorf("invalid signature length: %d", len(decoded))
	}
	return decoded, nil
}
