package state

import (
	"bytes"
	"crypto/sha256"
)

const discriminatorSize = 8

// discriminatorFor is the anchor account discriminator for a type name: the
// first 8 bytes of sha256("account:<name>").
func discriminatorFor(name string) []byte {
	h := sha256.Sum256([]byte("account:" + name))
	return h[:discriminatorSize]
}

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += discriminatorSize
}

func hasDiscriminator(src []byte, expected []byte) bool {
	return len(src) >= discriminatorSize && bytes.Equal(src[:discriminatorSize], expected)
}
