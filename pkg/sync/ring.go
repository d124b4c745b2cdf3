package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over the stripe indices [0, stripes).
type ring struct {
	points *treemap.Map // int64 hash -> stripe index

	// first caches the stripe of the lowest point, where lookups past the
	// highest point wrap around to.
	first int
}

// newRing places replicationFactor points on the ring for every stripe.
func newRing(stripes, replicationFactor uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < int(stripes); stripe++ {
		stripeHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("stripe%d", stripe)))

		var seed [12]byte
		binary.LittleEndian.PutUint64(seed[:8], stripeHash)
		for i := uint32(0); i < uint32(replicationFactor); i++ {
			binary.LittleEndian.PutUint32(seed[8:], i)
			point, _ := murmur3.Sum128(seed[:])
			points.Put(int64(point), stripe)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// shard consistently maps key to a stripe index.
func (r *ring) shard(key []byte) int {
	raw, _ := murmur3.Sum128(key)
	if _, stripe := r.points.Ceiling(int64(raw)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}
