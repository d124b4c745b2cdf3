package token

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/solana"
)

var (
	// ProgramKey is the SPL token program.
	ProgramKey = mustDecodeKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenAccountProgramKey is the SPL associated token account program.
	AssociatedTokenAccountProgramKey = mustDecodeKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// GetAssociatedAccount derives the canonical token holding of wallet for mint.
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(AssociatedTokenAccountProgramKey, wallet, ProgramKey, mint)
}

func mustDecodeKey(encoded string) ed25519.PublicKey {
	decoded, err := base58.Decode(encoded)
	if err != nil || len(decoded) != ed25519.PublicKeySize {
		panic("invalid program key: " + encoded)
	}
	return decoded
}
