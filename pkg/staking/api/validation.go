package api

import (
	"crypto/ed25519"

	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/grpc/validation"
)

func init() {
	if err := validation.RegisterValidation("pubkey", isBase58Length(ed25519.PublicKeySize)); err != nil {
		panic(err)
	}
	if err := validation.RegisterValidation("signature", isBase58Length(ed25519.SignatureSize)); err != nil {
		panic(err)
	}
}

func isBase58Length(size int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		decoded, err := base58.Decode(fl.Field().String())
		if err != nil {
			return false
		}
		return len(decoded) == size
	}
}
