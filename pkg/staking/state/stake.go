package state

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/solana/binary"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

const (
	StakeAccountSize = (8 + // discriminator
		32 + // owner
		32 + // mint
		8 + // staked at
		1) // bump
)

const secondsPerDay = 86400

var StakeAccountDiscriminator = discriminatorFor("StakeAccount")

// StakeAccount records custody of a single NFT.
type StakeAccount struct {
	Owner ed25519.PublicKey
	Mint  ed25519.PublicKey
	// Unix seconds
	StakedAt int64
	Bump     uint8
}

// ElapsedDays is the number of whole days between StakedAt and now. A clock
// behind StakedAt counts as zero days.
func (obj *StakeAccount) ElapsedDays(now time.Time) uint32 {
	elapsed := now.Unix() - obj.StakedAt
	if elapsed <= 0 {
		return 0
	}

	days := elapsed / secondsPerDay
	if days > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(days)
}

func (obj *StakeAccount) Marshal() []byte {
	data := make([]byte, StakeAccountSize)

	var offset int
	putDiscriminator(data, StakeAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Owner, &offset)
	binary.PutKey32(data[offset:], obj.Mint, &offset)
	binary.PutInt64(data[offset:], obj.StakedAt, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *StakeAccount) Unmarshal(data []byte) error {
	if len(data) < StakeAccountSize || !hasDiscriminator(data, StakeAccountDiscriminator) {
		return ledger.ErrInvalidAccountData
	}

	offset := discriminatorSize
	binary.GetKey32(data[offset:], &obj.Owner, &offset)
	binary.GetKey32(data[offset:], &obj.Mint, &offset)
	binary.GetInt64(data[offset:], &obj.StakedAt, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *StakeAccount) String() string {
	return fmt.Sprintf(
		"StakeAccount{owner=%s,mint=%s,staked_at=%d,bump=%d}",
		base58.Encode(obj.Owner),
		base58.Encode(obj.Mint),
		obj.StakedAt,
		obj.Bump,
	)
}
