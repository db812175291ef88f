package cache

import (
	"math"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/domain/insight"
)

// unboundedCapacity stands in for "no cap" since the LRU requires a positive size.
const unboundedCapacity = math.MaxInt32

// Entry is one cached artifact with its lifetime and the canonical fingerprint it
// was produced for.
type Entry struct {
	Namespace   string
	Artifact    insight.Artifact
	Fingerprint string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the entry must no longer be served at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store maps keys to entries. It is not safe for concurrent use; the Engine serializes access.
// With a positive capacity the least recently used entry is evicted when a new key is added.
type Store struct {
	lru *simplelru.LRU[string, *Entry]
}

// NewStore builds a store. maxEntries <= 0 means unbounded.
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = unboundedCapacity
	}
	lru, err := simplelru.NewLRU[string, *Entry](maxEntries, nil)
	if err != nil {
		// only returned for non-positive sizes, which are normalized above
		panic(err)
	}
	return &Store{lru: lru}
}

func (s *Store) Get(key string) (*Entry, bool) {
	return s.lru.Get(key)
}

// Put writes e at key and reports whether another entry was evicted to make room.
func (s *Store) Put(key string, e *Entry) bool {
	return s.lru.Add(key, e)
}

func (s *Store) Delete(key string) bool {
	return s.lru.Remove(key)
}

// DeletePrefix removes every key starting with prefix.
func (s *Store) DeletePrefix(prefix string) int {
	removed := 0
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) && s.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

// Sweep removes every entry expired at now.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, key := range s.lru.Keys() {
		e, ok := s.lru.Peek(key)
		if ok && e.Expired(now) && s.lru.Remove(key) {
			removed++
		}
	}
	return removed
}

// Each visits entries from least to most recently used without touching recency.
func (s *Store) Each(fn func(key string, e *Entry)) {
	for _, key := range s.lru.Keys() {
		if e, ok := s.lru.Peek(key); ok {
			fn(key, e)
		}
	}
}

func (s *Store) Purge() int {
	n := s.lru.Len()
	s.lru.Purge()
	return n
}

func (s *Store) Len() int {
	return s.lru.Len()
}
