package ledger

import (
	"errors"
	"time"
)

// Account is a single address-keyed record in the ledger. Owner is the program
// allowed to mutate Data, and Lamports are the backing resources paid when the
// record was created.
type Account struct {
	Address string
	Owner   string

	Lamports uint64
	Data     []byte

	// Version is bumped on every committed write and drives conflict detection
	// between transactions touching the same address.
	Version uint64

	LastUpdatedAt time.Time
	CreatedAt     time.Time
}

func (r *Account) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Owner) == 0 {
		return errors.New("owner is required")
	}

	return nil
}

func (r *Account) IsOwnedBy(program string) bool {
	return r.Owner == program
}

func (r *Account) Clone() Account {
	var data []byte
	if r.Data != nil {
		data = make([]byte, len(r.Data))
		copy(data, r.Data)
	}

	return Account{
		Address: r.Address,
		Owner:   r.Owner,

		Lamports: r.Lamports,
		Data:     data,

		Version: r.Version,

		LastUpdatedAt: r.LastUpdatedAt,
		CreatedAt:     r.CreatedAt,
	}
}

func (r *Account) CopyTo(dst *Account) {
	cloned := r.Clone()
	*dst = cloned
}
