package leveldb

import (
	"time"

	"github.com/code-payments/staking-server/pkg/solana/binary"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
)

var (
	accountPrefix   = []byte("account/")
	ownerPrefix     = []byte("owner/")
	tombstonePrefix = []byte("tombstone/")
)

const (
	maxOwnerLength = 64

	headerSize = (4 + maxOwnerLength + // owner
		8 + // lamports
		8 + // version
		8 + // last updated at
		8) // created at
)

func accountKey(address string) []byte {
	return append(append([]byte{}, accountPrefix...), address...)
}

// ownerIndexKey orders an owner's accounts by address, as in owner/<owner>/<address>
func ownerIndexKey(owner, address string) []byte {
	return append(ownerIndexPrefix(owner), address...)
}

func ownerIndexPrefix(owner string) []byte {
	key := append(append([]byte{}, ownerPrefix...), owner...)
	return append(key, '/')
}

func addressFromOwnerIndexKey(owner string, key []byte) string {
	return string(key[len(ownerPrefix)+len(owner)+1:])
}

func tombstoneKey(address string) []byte {
	return append(append([]byte{}, tombstonePrefix...), address...)
}

func marshalVersion(version uint64) []byte {
	b := make([]byte, 8)
	var offset int
	binary.PutUint64(b, version, &offset)
	return b
}

func unmarshalVersion(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, ledger.ErrInvalidAccountData
	}

	var version uint64
	var offset int
	binary.GetUint64(b, &version, &offset)
	return version, nil
}

func marshalAccount(account *ledger.Account) ([]byte, error) {
	b := make([]byte, headerSize+len(account.Data))

	var offset int
	if err := binary.PutString(b, account.Owner, maxOwnerLength, &offset); err != nil {
		return nil, err
	}
	binary.PutUint64(b[offset:], account.Lamports, &offset)
	binary.PutUint64(b[offset:], account.Version, &offset)
	binary.PutInt64(b[offset:], account.LastUpdatedAt.UnixNano(), &offset)
	binary.PutInt64(b[offset:], account.CreatedAt.UnixNano(), &offset)
	copy(b[offset:], account.Data)

	return b, nil
}

func unmarshalAccount(address string, b []byte) (*ledger.Account, error) {
	if len(b) < headerSize {
		return nil, ledger.ErrInvalidAccountData
	}

	account := &ledger.Account{
		Address: address,
	}

	var offset int
	var lastUpdatedAt, createdAt int64
	if err := binary.GetString(b, &account.Owner, maxOwnerLength, &offset); err != nil {
		return nil, ledger.ErrInvalidAccountData
	}
	binary.GetUint64(b[offset:], &account.Lamports, &offset)
	binary.GetUint64(b[offset:], &account.Version, &offset)
	binary.GetInt64(b[offset:], &lastUpdatedAt, &offset)
	binary.GetInt64(b[offset:], &createdAt, &offset)

	if len(b) > offset {
		account.Data = make([]byte, len(b)-offset)
		copy(account.Data, b[offset:])
	}

	account.LastUpdatedAt = time.Unix(0, lastUpdatedAt)
	account.CreatedAt = time.Unix(0, createdAt)
	return account, nil
}
