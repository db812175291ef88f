// Package fingerprint derives stable digests from the coarse shape of an upstream dataset.
//
// A Descriptor is the small set of features a namespace contributes to cache keying
// (collection counts, a few dominant KPIs, the brand filter and a coarsened clock bucket).
// Canonical renders it deterministically; Hash32 buckets the canonical text. Equality of
// two fingerprints is always decided on the canonical text, never on the hash alone.
package fingerprint

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ClockBucketField is the feature name carrying the coarsened wall clock.
const ClockBucketField = "clock_bucket"

// BrandField is the feature name carrying the brand filter.
const BrandField = "brand"

// Kind tells the canonicalizer how to coerce a missing or malformed value.
type Kind int

const (
	// Numeric features default to 0.
	Numeric Kind = iota
	// Categorical features default to the empty token.
	Categorical
)

// Field is one feature of a schema.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the fixed, ordered list of features a namespace fingerprints on.
type Schema []Field

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Descriptor maps feature names to values.
type Descriptor map[string]any

// Fingerprint pairs the canonical text with its bucketing hash.
type Fingerprint struct {
	Canonical string
	Hash      uint32
}

// HashString renders the hash as a fixed-width hex token usable inside a key.
func (f Fingerprint) HashString() string {
	return fmt.Sprintf("%08x", f.Hash)
}

// HashFunc maps canonical text to a bounded digest.
type HashFunc func(string) uint32

// Hash32 is a multiply-and-add rolling hash over code points with uint32 wraparound.
// It is not collision resistant and is only used for bucketing.
func Hash32(s string) uint32 {
	var h uint32
	for _, r := range s {
		h = h*31 + uint32(r)
	}
	return h
}

// Compute canonicalizes d against schema and hashes it. A nil hash uses Hash32.
func Compute(schema Schema, d Descriptor, hash HashFunc) Fingerprint {
	if hash == nil {
		hash = Hash32
	}
	canonical := Canonical(schema, d)
	return Fingerprint{Canonical: canonical, Hash: hash(canonical)}
}

// Canonical renders d as "name=value|name=value" in schema order. Missing numeric
// features become 0 and missing categorical features become "". Keys not named by the
// schema are ignored. With an empty schema every key is emitted in sorted order.
func Canonical(schema Schema, d Descriptor) string {
	if len(schema) == 0 {
		return canonicalSorted(d)
	}
	parts := make([]string, 0, len(schema))
	for _, f := range schema {
		var token string
		switch f.Kind {
		case Categorical:
			token = categoricalToken(d[f.Name])
		default:
			token = numericToken(d[f.Name])
		}
		parts = append(parts, f.Name+"="+token)
	}
	return strings.Join(parts, "|")
}

func canonicalSorted(d Descriptor) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := d[k]
		token := categoricalToken(v)
		if _, ok := toFloat(v); ok {
			token = numericToken(v)
		}
		parts = append(parts, k+"="+token)
	}
	return strings.Join(parts, "|")
}

// ClockBucket coarsens t to the index of its fixed-width window.
func ClockBucket(t time.Time, width time.Duration) int64 {
	if width <= 0 {
		return 0
	}
	return t.UnixNano() / int64(width)
}

func numericToken(v any) string {
	f, ok := toFloat(v)
	if !ok {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func categoricalToken(v any) string {
	switch t := v.(type) {
	case nil:
		return strconv.Quote("")
	case string:
		return strconv.Quote(t)
	case fmt.Stringer:
		return strconv.Quote(t.String())
	default:
		return strconv.Quote(fmt.Sprint(t))
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
