package auth

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/cache"
	"github.com/code-payments/staking-server/pkg/config"
	"github.com/code-payments/staking-server/pkg/metrics"
	"github.com/code-payments/staking-server/pkg/staking/common"
)

const (
	metricsStructName = "auth.rpc_signature_verifier"

	// Signatures remembered for replay detection. Each entry weighs 1.
	maxSeenSignatures = 1_000_000
)

// RPCSignatureVerifier verifies request messages signed by owner accounts.
// Signed requests carry the time they were signed at, and are only accepted
// while they're younger than the configured max age. A signature is accepted
// at most once.
type RPCSignatureVerifier struct {
	log    *logrus.Entry
	maxAge config.Duration
	now    func() time.Time
	seen   cache.Cache[string, time.Time]
}

func NewRPCSignatureVerifier(maxAge config.Duration) *RPCSignatureVerifier {
	return &RPCSignatureVerifier{
		log:    logrus.StandardLogger().WithField("type", "auth/rpc_signature_verifier"),
		maxAge: maxAge,
		now:    time.Now,
		seen:   cache.NewCache[string, time.Time](maxSeenSignatures),
	}
}

// Authenticate authenticates that message was signed by the owner account
// public key at signedAt.
func (v *RPCSignatureVerifier) Authenticate(ctx context.Context, owner *common.Account, message, signature []byte, signedAt time.Time) error {
	defer metrics.TraceMethodCall(ctx, metricsStructName, "Authenticate").End()

	log := v.log.WithFields(logrus.Fields{
		"method":        "Authenticate",
		"owner_account": owner.PublicKey().ToBase58(),
		"signed_at":     signedAt.Unix(),
	})

	if len(signature) != ed25519.SignatureSize {
		return status.Error(codes.Unauthenticated, "invalid signature")
	}

	age := v.now().Sub(signedAt)
	if age < 0 {
		age = -age
	}
	if age > v.maxAge.Get(ctx) {
		log.Debug("request signature expired")
		return status.Error(codes.Unauthenticated, "request signature expired")
	}

	encodedSignature := base58.Encode(signature)
	if !ed25519.Verify(owner.PublicKey().ToBytes(), message, signature) {
		log.WithField("signature", encodedSignature).Info("request message is not signature verified")
		return status.Error(codes.Unauthenticated, "")
	}

	if err := v.seen.Insert(encodedSignature, signedAt, 1); err == cache.ErrKeyExists {
		log.WithField("signature", encodedSignature).Info("request signature was already used")
		return status.Error(codes.Unauthenticated, "request signature already used")
	} else if err != nil {
		log.WithError(err).Warn("failure recording request signature")
		return status.Error(codes.Internal, "")
	}
	return nil
}
