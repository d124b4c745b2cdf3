package token

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/staking-server/pkg/staking/common"
)

// Authority is anything that can sign for an address. Wallets sign with their
// private key, and program derived addresses sign when the program can
// re-derive them.
type Authority interface {
	PublicKey() ed25519.PublicKey
	Authorize() error
}

type walletAuthority struct {
	account *common.Account
}

// WalletAuthority is the Authority of a wallet whose signature has already
// been verified by the caller, typically over the incoming request.
func WalletAuthority(account *common.Account) Authority {
	return &walletAuthority{account: account}
}

func (a *walletAuthority) PublicKey() ed25519.PublicKey {
	return a.account.PublicKey().ToBytes()
}

func (a *walletAuthority) Authorize() error {
	if !a.account.IsOnCurve() {
		return errors.New("wallet authority must be on the ed25519 curve")
	}
	return nil
}
