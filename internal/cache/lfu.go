// Funnelcast - Hotel Booking Funnel Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/funnelcast

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/funnelcast/internal/metrics"
)

// lfuNode is an entry in one frequency list.
type lfuNode struct {
	key       string
	value     []byte
	freq      int
	expiresAt time.Time
	prev      *lfuNode
	next      *lfuNode
}

// freqList is a doubly-linked list of nodes sharing one access frequency.
// Head side holds the most recently touched node.
type freqList struct {
	head *lfuNode
	tail *lfuNode
	size int
}

func newFreqList() *freqList {
	fl := &freqList{head: &lfuNode{}, tail: &lfuNode{}}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList) pushFront(n *lfuNode) {
	n.prev = fl.head
	n.next = fl.head.next
	fl.head.next.prev = n
	fl.head.next = n
	fl.size++
}

func (fl *freqList) unlink(n *lfuNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	fl.size--
}

func (fl *freqList) popBack() *lfuNode {
	if fl.size == 0 {
		return nil
	}
	n := fl.tail.prev
	fl.unlink(n)
	return n
}

// LFUStore is a capacity-bounded Store that evicts the least frequently
// used entry when full, breaking ties by least recent use. Get, SetWithTTL
// and eviction are O(1).
//
// Month chunks of popular ranges (the current quarter on a dashboard) are
// read far more often than one-off historical ranges, so frequency is a
// better eviction signal than recency for this workload.
type LFUStore struct {
	mu sync.Mutex

	capacity   int
	defaultTTL time.Duration
	nodes      map[string]*lfuNode
	freqs      map[int]*freqList
	minFreq    int
	closed     bool

	hits      int64
	misses    int64
	evictions int64
	lastSweep time.Time

	now func() time.Time
}

// NewLFUStore creates an LFU store holding at most capacity entries.
func NewLFUStore(capacity int, defaultTTL time.Duration) *LFUStore {
	if capacity <= 0 {
		capacity = 10000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &LFUStore{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		nodes:      make(map[string]*lfuNode, capacity),
		freqs:      make(map[int]*freqList),
		lastSweep:  time.Now(),
		now:        time.Now,
	}
}

// Backend returns BackendLFU.
func (c *LFUStore) Backend() Backend { return BackendLFU }

// Get retrieves a value and bumps its frequency.
func (c *LFUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrStoreClosed
	}

	n, ok := c.nodes[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if c.now().After(n.expiresAt) {
		c.remove(n)
		c.misses++
		c.evictions++
		metrics.CacheStoreEvictions.WithLabelValues(string(BackendLFU)).Inc()
		return nil, false, nil
	}

	c.touch(n)
	c.hits++
	return n.value, true, nil
}

// SetWithTTL adds or replaces an entry, evicting the least frequently used
// entry when the store is full.
func (c *LFUStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data := make([]byte, len(value))
	copy(data, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrStoreClosed
	}

	expiresAt := c.now().Add(ttl)
	if n, ok := c.nodes[key]; ok {
		n.value = data
		n.expiresAt = expiresAt
		c.touch(n)
		return nil
	}

	if len(c.nodes) >= c.capacity {
		c.evict()
	}

	n := &lfuNode{key: key, value: data, freq: 1, expiresAt: expiresAt}
	if c.freqs[1] == nil {
		c.freqs[1] = newFreqList()
	}
	c.freqs[1].pushFront(n)
	c.nodes[key] = n
	c.minFreq = 1

	metrics.CacheStoreEntries.WithLabelValues(string(BackendLFU)).Set(float64(len(c.nodes)))
	return nil
}

// Frequency returns the access frequency of key, or 0 if absent.
func (c *LFUStore) Frequency(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.nodes[key]; ok {
		return n.freq
	}
	return 0
}

// Len returns the number of entries.
func (c *LFUStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *LFUStore) Sweep(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, n := range c.nodes {
		if now.After(n.expiresAt) {
			c.remove(n)
			removed++
		}
	}
	c.evictions += int64(removed)
	c.lastSweep = now

	metrics.CacheStoreEntries.WithLabelValues(string(BackendLFU)).Set(float64(len(c.nodes)))
	metrics.CacheStoreEvictions.WithLabelValues(string(BackendLFU)).Add(float64(removed))
	return removed
}

// Stats returns a snapshot of store statistics.
func (c *LFUStore) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Backend:   BackendLFU,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   int64(len(c.nodes)),
		HitRate:   hitRate(c.hits, c.misses),
		LastSweep: c.lastSweep,
	}
}

// Close drops all entries.
func (c *LFUStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.nodes = make(map[string]*lfuNode)
	c.freqs = make(map[int]*freqList)
	c.minFreq = 0
	return nil
}

// Internal methods (must be called with mu held)

// touch moves n to the next frequency list.
func (c *LFUStore) touch(n *lfuNode) {
	if fl, ok := c.freqs[n.freq]; ok {
		fl.unlink(n)
		if fl.size == 0 {
			delete(c.freqs, n.freq)
			if c.minFreq == n.freq {
				c.minFreq++
			}
		}
	}

	n.freq++
	if c.freqs[n.freq] == nil {
		c.freqs[n.freq] = newFreqList()
	}
	c.freqs[n.freq].pushFront(n)
}

// evict drops the least recently used node of the lowest frequency.
func (c *LFUStore) evict() {
	fl := c.freqs[c.minFreq]
	if fl == nil || fl.size == 0 {
		// minFreq is stale after removals; find the real minimum
		c.minFreq = 0
		for f, l := range c.freqs {
			if l.size > 0 && (c.minFreq == 0 || f < c.minFreq) {
				c.minFreq = f
			}
		}
		if fl = c.freqs[c.minFreq]; fl == nil {
			return
		}
	}

	if n := fl.popBack(); n != nil {
		delete(c.nodes, n.key)
		if fl.size == 0 {
			delete(c.freqs, c.minFreq)
		}
		c.evictions++
		metrics.CacheStoreEvictions.WithLabelValues(string(BackendLFU)).Inc()
	}
}

// remove unlinks n from its frequency list and the key map.
func (c *LFUStore) remove(n *lfuNode) {
	if fl, ok := c.freqs[n.freq]; ok {
		fl.unlink(n)
		if fl.size == 0 {
			delete(c.freqs, n.freq)
		}
	}
	delete(c.nodes, n.key)
}
