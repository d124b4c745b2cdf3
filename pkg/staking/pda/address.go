package pda

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/staking-server/pkg/cache"
	"github.com/code-payments/staking-server/pkg/solana"
	"github.com/code-payments/staking-server/pkg/staking/common"
)

var (
	ConfigPrefix  = []byte("config")
	RewardsPrefix = []byte("rewards")
	UserPrefix    = []byte("user")
	StakePrefix   = []byte("stake")
)

var ErrInvalidSigner = errors.New("seeds do not derive the signing address")

const defaultCacheBudget = 10_000

// Address is a program derived address together with the seeds and bump that
// produce it.
type Address struct {
	program ed25519.PublicKey
	seeds   [][]byte

	Address ed25519.PublicKey
	Bump    uint8
}

// Deriver maps semantic keys to program derived addresses for a single
// program. Derivations are deterministic and memoized.
type Deriver struct {
	program ed25519.PublicKey
	cache   cache.Cache[string, *Address]
}

func NewDeriver(program *common.Account) *Deriver {
	return &Deriver{
		program: program.PublicKey().ToBytes(),
		cache:   cache.NewCache[string, *Address](defaultCacheBudget),
	}
}

func (d *Deriver) Program() ed25519.PublicKey {
	return d.program
}

// Derive finds the canonical address and bump for seeds.
func (d *Deriver) Derive(seeds ...[]byte) (*Address, error) {
	key := cacheKey(seeds)
	if cached, ok := d.cache.Retrieve(key); ok {
		return cached, nil
	}

	address, bump, err := solana.FindProgramAddressAndBump(d.program, seeds...)
	if err != nil {
		return nil, err
	}

	copied := make([][]byte, len(seeds))
	for i, seed := range seeds {
		copied[i] = append([]byte{}, seed...)
	}

	derived := &Address{
		program: d.program,
		seeds:   copied,
		Address: address,
		Bump:    bump,
	}

	// Losing a race to insert the same key is harmless
	_ = d.cache.Insert(key, derived, 1)
	return derived, nil
}

type GetConfigAddressArgs struct{}

func (d *Deriver) GetConfigAddress(_ *GetConfigAddressArgs) (*Address, error) {
	return d.Derive(ConfigPrefix)
}

type GetRewardsMintAddressArgs struct {
	Config ed25519.PublicKey
}

func (d *Deriver) GetRewardsMintAddress(args *GetRewardsMintAddressArgs) (*Address, error) {
	return d.Derive(RewardsPrefix, args.Config)
}

type GetUserAddressArgs struct {
	Owner ed25519.PublicKey
}

func (d *Deriver) GetUserAddress(args *GetUserAddressArgs) (*Address, error) {
	return d.Derive(UserPrefix, args.Owner)
}

type GetStakeAddressArgs struct {
	Mint   ed25519.PublicKey
	Config ed25519.PublicKey
}

func (d *Deriver) GetStakeAddress(args *GetStakeAddressArgs) (*Address, error) {
	return d.Derive(StakePrefix, args.Mint, args.Config)
}

type GetVenueAddressArgs struct {
	Config ed25519.PublicKey
	Name   string
}

func (d *Deriver) GetVenueAddress(args *GetVenueAddressArgs) (*Address, error) {
	return d.Derive(args.Config, []byte(args.Name))
}

type GetSubmissionAddressArgs struct {
	Venue ed25519.PublicKey
	Owner ed25519.PublicKey
}

func (d *Deriver) GetSubmissionAddress(args *GetSubmissionAddressArgs) (*Address, error) {
	return d.Derive(args.Venue, args.Owner)
}

// Verify checks that seeds and bump re-create address under program, which is
// how a stored bump is proven to belong to a record.
func Verify(program, address ed25519.PublicKey, bump uint8, seeds ...[]byte) error {
	withBump := append(append([][]byte{}, seeds...), []byte{bump})

	expected, err := solana.CreateProgramAddress(program, withBump...)
	if err != nil {
		return ErrInvalidSigner
	}

	if !bytes.Equal(expected, address) {
		return ErrInvalidSigner
	}
	return nil
}

// PublicKey implements token.Authority
func (a *Address) PublicKey() ed25519.PublicKey {
	return a.Address
}

// Authorize implements token.Authority by re-deriving the address from its
// seeds and bump, the way the program signs for it.
func (a *Address) Authorize() error {
	return Verify(a.program, a.Address, a.Bump, a.seeds...)
}

func (a *Address) ToAccount() (*common.Account, error) {
	return common.NewAccountFromPublicKeyBytes(a.Address)
}

func (a *Address) String() string {
	return fmt.Sprintf("%s(bump=%d)", base58.Encode(a.Address), a.Bump)
}

func cacheKey(seeds [][]byte) string {
	encoded := make([]string, len(seeds))
	for i, seed := range seeds {
		encoded[i] = base58.Encode(seed)
	}
	return strings.Join(encoded, "/")
}
