package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	programDerivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump seed")
)

var (
	programHashCtor = sha256.New
)

// CreateProgramAddress hashes the seeds and program into an address that does
// not lie on the ed25519 curve, so no private key exists for it. Only the
// program can act as the address, by presenting the same seeds again.
//
// ErrInvalidPublicKey is returned when the hash happens to be a valid curve
// point. Callers searching for a usable address should go through
// FindProgramAddressAndBump instead.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(seed); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	if _, err := h.Write(program); err != nil {
		return nil, errors.Wrap(err, "failed to hash program")
	}
	if _, err := h.Write([]byte(programDerivedAddressMarker)); err != nil {
		return nil, errors.Wrap(err, "failed to hash marker")
	}

	var candidate [ed25519.PublicKeySize]byte
	copy(candidate[:], h.Sum(nil))

	// The standard library keeps its edwards point type internal, so we lean on
	// the extracted edwards25519 package to tell whether the candidate decodes
	// as a curve point.
	var point edwards25519.ExtendedGroupElement
	if point.FromBytes(&candidate) {
		return nil, ErrInvalidPublicKey
	}

	return candidate[:], nil
}

// FindProgramAddressAndBump walks the bump seed down from 255 until the seeds
// produce an off-curve address, returning the address with the bump that
// produced it. The bump must be stored alongside the record so the program can
// later re-create the address without searching.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := math.MaxUint8; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}

		address, err := CreateProgramAddress(program, withBump...)
		switch err {
		case nil:
			return address, uint8(bump), nil
		case ErrInvalidPublicKey:
			continue
		default:
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoViableBump
}

// FindProgramAddress is FindProgramAddressAndBump without the bump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	address, _, err := FindProgramAddressAndBump(program, seeds...)
	return address, err
}
