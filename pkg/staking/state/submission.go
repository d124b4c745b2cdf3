package state

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/staking-server/pkg/solana/binary"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

// MaxVenueNameLength matches the maximum length of a single address seed.
const MaxVenueNameLength = 32

const (
	VenueAccountSize = (8 + // discriminator
		4 + MaxVenueNameLength + // name
		4 + // submission count
		1) // bump

	SubmissionAccountSize = (8 + // discriminator
		32 + // owner
		32 + // venue
		2 + // decibels
		8 + // timestamp
		1) // bump
)

var (
	VenueAccountDiscriminator      = discriminatorFor("Venue")
	SubmissionAccountDiscriminator = discriminatorFor("Submission")
)

type VenueAccount struct {
	Name            string
	SubmissionCount uint32
	Bump            uint8
}

func (obj *VenueAccount) Marshal() ([]byte, error) {
	data := make([]byte, VenueAccountSize)

	var offset int
	putDiscriminator(data, VenueAccountDiscriminator, &offset)
	if err := binary.PutString(data[offset:], obj.Name, MaxVenueNameLength, &offset); err != nil {
		return nil, err
	}
	binary.PutUint32(data[offset:], obj.SubmissionCount, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data, nil
}

func (obj *VenueAccount) Unmarshal(data []byte) error {
	if len(data) < VenueAccountSize || !hasDiscriminator(data, VenueAccountDiscriminator) {
		return ledger.ErrInvalidAccountData
	}

	offset := discriminatorSize
	if err := binary.GetString(data[offset:], &obj.Name, MaxVenueNameLength, &offset); err != nil {
		return ledger.ErrInvalidAccountData
	}
	binary.GetUint32(data[offset:], &obj.SubmissionCount, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *VenueAccount) String() string {
	return fmt.Sprintf(
		"VenueAccount{name=%q,submission_count=%d,bump=%d}",
		obj.Name,
		obj.SubmissionCount,
		obj.Bump,
	)
}

// SubmissionAccount is a single loudness reading an owner submitted for a
// venue.
type SubmissionAccount struct {
	Owner    ed25519.PublicKey
	Venue    ed25519.PublicKey
	Decibels uint16
	// Unix seconds
	Timestamp int64
	Bump      uint8
}

func (obj *SubmissionAccount) Marshal() []byte {
	data := make([]byte, SubmissionAccountSize)

	var offset int
	putDiscriminator(data, SubmissionAccountDiscriminator, &offset)
	binary.PutKey32(data[offset:], obj.Owner, &offset)
	binary.PutKey32(data[offset:], obj.Venue, &offset)
	binary.PutUint16(data[offset:], obj.Decibels, &offset)
	binary.PutInt64(data[offset:], obj.Timestamp, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)

	return data
}

func (obj *SubmissionAccount) Unmarshal(data []byte) error {
	if len(data) < SubmissionAccountSize || !hasDiscriminator(data, SubmissionAccountDiscriminator) {
		return ledger.ErrInvalidAccountData
	}

	offset := discriminatorSize
	binary.GetKey32(data[offset:], &obj.Owner, &offset)
	binary.GetKey32(data[offset:], &obj.Venue, &offset)
	binary.GetUint16(data[offset:], &obj.Decibels, &offset)
	binary.GetInt64(data[offset:], &obj.Timestamp, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)

	return nil
}

func (obj *SubmissionAccount) String() string {
	return fmt.Sprintf(
		"SubmissionAccount{owner=%s,venue=%s,decibels=%d,timestamp=%d,bump=%d}",
		base58.Encode(obj.Owner),
		base58.Encode(obj.Venue),
		obj.Decibels,
		obj.Timestamp,
		obj.Bump,
	)
}
