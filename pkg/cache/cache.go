// Package cache provides a weighted least-recently-used cache.
package cache

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrKeyExists = errors.New("key already exists in cache")

// Cache is a bounded LRU keyed by K. Each entry carries a caller supplied
// weight and the least recently used entries are evicted until the total
// weight fits the budget again.
type Cache[K comparable, V any] interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int
	Insert(key K, value V, weight int) error
	Retrieve(key K) (V, bool)
	Remove(key K) bool
	Clear()
}

type cacheNode[K comparable, V any] struct {
	next   *cacheNode[K, V]
	prev   *cacheNode[K, V]
	key    K
	value  V
	weight int
}

type cache[K comparable, V any] struct {
	log *logrus.Entry

	mu      sync.Mutex
	head    *cacheNode[K, V]
	tail    *cacheNode[K, V]
	lookup  map[K]*cacheNode[K, V]
	weight  int
	budget  int
	verbose bool
}

func NewCache[K comparable, V any](budget int) Cache[K, V] {
	return &cache[K, V]{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		lookup: make(map[K]*cacheNode[K, V]),
		budget: budget,
	}
}

func (c *cache[K, V]) SetVerbose(verbose bool) {
	c.mu.Lock()
	c.verbose = verbose
	c.mu.Unlock()
}

func (c *cache[K, V]) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache[K, V]) GetBudget() int {
	return c.budget
}

// Insert adds a new entry at the front of the recency list. Existing keys are
// rejected with ErrKeyExists.
func (c *cache[K, V]) Insert(key K, value V, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.lookup[key]; found {
		return ErrKeyExists
	}

	node := &cacheNode[K, V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(node)
	c.lookup[key] = node
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		delete(c.lookup, evicted.key)
		c.weight -= evicted.weight

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

func (c *cache[K, V]) Retrieve(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.lookup[key]
	if !found {
		var zero V
		return zero, false
	}

	if node != c.head {
		c.unlink(node)
		c.pushFront(node)
	}

	return node.value, true
}

func (c *cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.lookup[key]
	if !found {
		return false
	}

	c.unlink(node)
	delete(c.lookup, key)
	c.weight -= node.weight
	return true
}

func (c *cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[K]*cacheNode[K, V])
	c.weight = 0
}

func (c *cache[K, V]) pushFront(node *cacheNode[K, V]) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *cache[K, V]) unlink(node *cacheNode[K, V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}

	node.next = nil
	node.prev = nil
}
