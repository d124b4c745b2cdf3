package sync

import (
	base "sync"
)

const (
	pointsPerStripe = 200
)

// StripedLock consistently maps an unbounded key space, such as account
// addresses, onto a fixed set of mutexes. Distinct keys may share a stripe.
type StripedLock struct {
	locks []base.Mutex
	ring  *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks: make([]base.Mutex, stripes),
		ring:  newRing(stripes, pointsPerStripe),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.Mutex {
	return &l.locks[l.ring.shard(key)]
}

// Lock locks the stripe of key and returns its unlock func.
func (l *StripedLock) Lock(key []byte) func() {
	mu := l.Get(key)
	mu.Lock()
	return mu.Unlock
}
