package state

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/solana/binary"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

const (
	ConfigAccountSize = (8 + // discriminator
		32 + // admin
		32 + // rewards mint
		1 + // points per stake
		1 + // max stake
		4 + // freeze period
		1 + // rewards bump
		1) // bump
)

var ConfigAccountDiscriminator = discriminatorFor("StakeConfig")

// ConfigAccount holds the administrative parameters of a program deployment.
type ConfigAccount struct {
	Admin          ed25519.PublicKey
	RewardsMint    ed25519.PublicKey
	PointsPerStake uint8
	MaxStake       uint8
	// Whole days a stake must be held before it can be withdrawn
	FreezePeriod uint32
	RewardsBump  uint8
	Bump         uint8
}

func (obj *ConfigAccount) Marshal() []byte {
	data := make([]byte, ConfigAccountSize)

	var offset int
	putDiscriminator(data, ConfigAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Admin, &offset)
	binary.PutKey32(data[offset:], obj.RewardsMint, &offset)
	binary.PutUint8(data[offset:], obj.PointsPerStake, &offset)
	binary.PutUint8(data[offset:], obj.MaxStake, &offset)
	binary.PutUint32(data[offset:], obj.FreezePeriod, &offset)
	binary.PutUint8(data[offset:], obj.RewardsBump, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *ConfigAccount) Unmarshal(data []byte) error {
	if len(data) < ConfigAccountSize || !hasDiscriminator(data, ConfigAccountDiscriminator) {
		return ledger.ErrInvalidAccountData
	}

	offset := discriminatorSize
	binary.GetKey32(data[offset:], &obj.Admin, &offset)
	binary.GetKey32(data[offset:], &obj.RewardsMint, &offset)
	binary.GetUint8(data[offset:], &obj.PointsPerStake, &offset)
	binary.GetUint8(data[offset:], &obj.MaxStake, &offset)
	binary.GetUint32(data[offset:], &obj.FreezePeriod, &offset)
	binary.GetUint8(data[offset:], &obj.RewardsBump, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *ConfigAccount) String() string {
	return fmt.Sprintf(
		"ConfigAccount{admin=%s,rewards_mint=%s,points_per_stake=%d,max_stake=%d,freeze_period=%d,rewards_bump=%d,bump=%d}",
		base58.Encode(obj.Admin),
		base58.Encode(obj.RewardsMint),
		obj.PointsPerStake,
		obj.MaxStake,
		obj.FreezePeriod,
		obj.RewardsBump,
		obj.Bump,
	)
}
