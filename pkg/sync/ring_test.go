package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(64, pointsPerStripe)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		stripe := r.shard(key)
		assert.True(t, stripe >= 0 && stripe < 64)

		for j := 0; j < 16; j++ {
			assert.Equal(t, stripe, r.shard(key))
		}
	}
}

func TestRing_Distribution(t *testing.T) {
	stripes := 5
	iterations := 200000
	marginOfError := 0.15
	expectedFrequency := iterations / stripes

	r := newRing(uint(stripes), pointsPerStripe)

	hits := make(map[int]int)
	for i := 0; i < iterations; i++ {
		key := []byte(base58.Encode([]byte(fmt.Sprintf("account%d", i))))
		hits[r.shard(key)]++
	}

	assert.Len(t, hits, stripes)
	for _, hitCount := range hits {
		assert.True(t, math.Abs(float64(hitCount-expectedFrequency)) <= marginOfError*float64(expectedFrequency))
	}
}
