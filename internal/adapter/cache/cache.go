// Package cache memoises classifier probabilities for repeated feature vectors.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"github.com/couchcryptid/landslide-risk-service/internal/domain"
	"github.com/couchcryptid/landslide-risk-service/internal/observability"
)

// CachedClassifier wraps a Classifier with an in-memory LRU cache keyed on
// the exact bit pattern of the feature vector.
type CachedClassifier struct {
	inner   domain.Classifier
	cache   *lruCache[float64]
	metrics *observability.Metrics
}

// NewCachedClassifier creates a cache decorator around a classifier.
// metrics may be nil.
func NewCachedClassifier(inner domain.Classifier, maxEntries int, metrics *observability.Metrics) *CachedClassifier {
	return &CachedClassifier{
		inner:   inner,
		cache:   newLRUCache[float64](maxEntries),
		metrics: metrics,
	}
}

// ProbabilityOfPositive implements domain.Classifier.
func (c *CachedClassifier) ProbabilityOfPositive(ctx context.Context, v domain.FeatureVector) (float64, error) {
	key := vectorKey(v)
	if p, ok := c.cache.get(key); ok {
		c.record("hit")
		return p, nil
	}
	c.record("miss")

	p, err := c.inner.ProbabilityOfPositive(ctx, v)
	if err != nil {
		// Failures are not cached so a cancelled request cannot poison later ones.
		return p, err
	}
	c.cache.put(key, p)
	return p, nil
}

// NumFeatures reports the inner classifier's width, or 0 (unknown) when it
// does not declare one.
func (c *CachedClassifier) NumFeatures() int {
	if fc, ok := c.inner.(domain.FeatureCounter); ok {
		return fc.NumFeatures()
	}
	return 0
}

// Len returns the number of cached vectors.
func (c *CachedClassifier) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

func (c *CachedClassifier) record(result string) {
	if c.metrics != nil {
		c.metrics.ClassifierCache.WithLabelValues(result).Inc()
	}
}

// vectorKey encodes v so that vectors differing in any bit (including -0 vs 0)
// map to different keys.
func vectorKey(v domain.FeatureVector) string {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return hex.EncodeToString(buf)
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
