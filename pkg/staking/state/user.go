package state

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/solana/binary"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

const (
	UserAccountSize = (8 + // discriminator
		32 + // owner
		4 + // points
		1 + // amount staked
		2 + // num of submissions
		1) // bump
)

var UserAccountDiscriminator = discriminatorFor("UserAccount")

// UserAccount accumulates claimable points for a single owner and counts the
// stake and submission records the owner currently holds.
type UserAccount struct {
	Owner            ed25519.PublicKey
	Points           uint32
	AmountStaked     uint8
	NumOfSubmissions uint16
	Bump             uint8
}

func (obj *UserAccount) HasActiveRecords() bool {
	return obj.AmountStaked > 0 || obj.NumOfSubmissions > 0
}

func (obj *UserAccount) Marshal() []byte {
	data := make([]byte, UserAccountSize)

	var offset int
	putDiscriminator(data, UserAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Owner, &offset)
	binary.PutUint32(data[offset:], obj.Points, &offset)
	binary.PutUint8(data[offset:], obj.AmountStaked, &offset)
	binary.PutUint16(data[offset:], obj.NumOfSubmissions, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *UserAccount) Unmarshal(data []byte) error {
	if len(data) < UserAccountSize || !hasDiscriminator(data, UserAccountDiscriminator) {
		return ledger.ErrInvalidAccountData
	}

	offset := discriminatorSize
	binary.GetKey32(data[offset:], &obj.Owner, &offset)
	binary.GetUint32(data[offset:], &obj.Points, &offset)
	binary.GetUint8(data[offset:], &obj.AmountStaked, &offset)
	binary.GetUint16(data[offset:], &obj.NumOfSubmissions, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *UserAccount) String() string {
	return fmt.Sprintf(
		"UserAccount{owner=%s,points=%d,amount_staked=%d,num_of_submissions=%d,bump=%d}",
		base58.Encode(obj.Owner),
		obj.Points,
		obj.AmountStaked,
		obj.NumOfSubmissions,
		obj.Bump,
	)
}
