package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress_KnownVectors(t *testing.T) {
	// Vectors (typo included) come from the upstream pubkey.rs test suite.
	seedKey, err := base58.Decode("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)
	program, err := base58.Decode("BPFLoader1111111111111111111111111111111111")
	require.NoError(t, err)

	for _, tc := range []struct {
		seeds    [][]byte
		expected string
	}{
		{[][]byte{{}, {1}}, "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT"},
		{[][]byte{[]byte("☉")}, "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7"},
		{[][]byte{[]byte("Talking"), []byte("Squirrels")}, "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds"},
		{[][]byte{seedKey}, "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K"},
	} {
		actual, err := CreateProgramAddress(program, tc.seeds...)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(actual))
	}

	talking, err := CreateProgramAddress(program, []byte("Talking"))
	require.NoError(t, err)
	squirrels, err := CreateProgramAddress(program, []byte("Talking"), []byte("Squirrels"))
	require.NoError(t, err)
	assert.NotEqual(t, talking, squirrels)
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = CreateProgramAddress(program, make([]byte, maxSeedLength+1))
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(program, []byte("venue"), make([]byte, maxSeedLength+1))
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = FindProgramAddress(program, []byte("venue"), make([]byte, maxSeedLength+1))
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	tooMany := make([][]byte, maxSeeds+1)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	_, err = CreateProgramAddress(program, tooMany...)
	assert.Equal(t, ErrTooManySeeds, err)
}

type fixedHash struct {
	sum []byte
}

func (h *fixedHash) Write(p []byte) (int, error) {
	return len(p), nil
}

func (h *fixedHash) Sum(_ []byte) []byte {
	return h.sum
}

func (h *fixedHash) Reset() {
}

func (h *fixedHash) Size() int {
	return sha256.Size
}

func (h *fixedHash) BlockSize() int {
	return sha256.BlockSize
}

func TestCreateProgramAddress_OnCurve(t *testing.T) {
	onCurve, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	programHashCtor = func() hash.Hash {
		return &fixedHash{sum: onCurve}
	}
	defer func() {
		programHashCtor = sha256.New
	}()

	program, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = CreateProgramAddress(program, []byte("stake"))
	assert.Equal(t, ErrInvalidPublicKey, err)

	_, _, err = FindProgramAddressAndBump(program, []byte("stake"))
	assert.Equal(t, ErrNoViableBump, err)
}

func TestFindProgramAddressAndBump(t *testing.T) {
	for i := 0; i < 250; i++ {
		program, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		address, bump, err := FindProgramAddressAndBump(program, []byte("user"), program)
		require.NoError(t, err)

		recreated, err := CreateProgramAddress(program, []byte("user"), program, []byte{bump})
		require.NoError(t, err)
		assert.EqualValues(t, address, recreated)

		// Every bump above the canonical one must land on the curve.
		for higher := int(bump) + 1; higher <= 255; higher++ {
			_, err := CreateProgramAddress(program, []byte("user"), program, []byte{byte(higher)})
			assert.Equal(t, ErrInvalidPublicKey, err)
		}
	}
}

func TestFindProgramAddress_Reference(t *testing.T) {
	for _, tc := range []struct {
		program  string
		expected string
	}{
		{"4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM", "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd"},
		{"8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh", "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S"},
		{"CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3", "B2vBn2bmF9GuaGkebrm8oUqDC34pE6m4bagjNcVE6msv"},
		{"GcdayuLaLyrdmUu324nahyv33G5poQdLUEZ1nEytDeP", "2mN5Nfq9v1EwTV9FPTHPESZ3XiZce9wi5PQoULFuxvev"},
	} {
		program, err := base58.Decode(tc.program)
		require.NoError(t, err)

		actual, err := FindProgramAddress(program, []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(actual))
	}
}
