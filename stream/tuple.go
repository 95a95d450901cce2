package stream

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-faster/errors"
)

// Tuple is one record flowing through a pipeline: a set of named values.
// Iteration helpers visit fields in sorted key order.
type Tuple map[string]OpResult

// RenamePair maps field From of an input tuple to field To of the output.
type RenamePair struct {
	From string
	To   string
}

// Keys returns the field names in sorted order.
func (t Tuple) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. Values are immutable so this is a full copy.
func (t Tuple) Clone() Tuple {
	out := make(Tuple, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// With returns a copy of t with key set to v.
func (t Tuple) With(key string, v OpResult) Tuple {
	out := make(Tuple, len(t)+1)
	for k, val := range t {
		out[k] = val
	}
	out[key] = v
	return out
}

// Get returns the value stored under key.
func (t Tuple) Get(key string) (OpResult, error) {
	v, ok := t[key]
	if !ok {
		return nil, errors.Wrapf(ErrKeyNotFound, "field %q", key)
	}
	return v, nil
}

// LookupInt returns the integer stored under key.
func (t Tuple) LookupInt(key string) (int64, error) {
	v, err := t.Get(key)
	if err != nil {
		return 0, err
	}
	i, err := AsInt(v)
	if err != nil {
		return 0, errors.Wrapf(err, "field %q", key)
	}
	return i, nil
}

// LookupFloat returns the float stored under key.
func (t Tuple) LookupFloat(key string) (float64, error) {
	v, err := t.Get(key)
	if err != nil {
		return 0, err
	}
	f, err := AsFloat(v)
	if err != nil {
		return 0, errors.Wrapf(err, "field %q", key)
	}
	return f, nil
}

// LookupIPv4 returns the address stored under key.
func (t Tuple) LookupIPv4(key string) (IPv4, error) {
	v, err := t.Get(key)
	if err != nil {
		return IPv4{}, err
	}
	a, err := AsIPv4(v)
	if err != nil {
		return IPv4{}, errors.Wrapf(err, "field %q", key)
	}
	return a, nil
}

// LookupMAC returns the hardware address stored under key.
func (t Tuple) LookupMAC(key string) (MAC, error) {
	v, err := t.Get(key)
	if err != nil {
		return MAC{}, err
	}
	m, err := AsMAC(v)
	if err != nil {
		return MAC{}, errors.Wrapf(err, "field %q", key)
	}
	return m, nil
}

// Project returns a tuple holding only the listed keys that are present in t.
func (t Tuple) Project(keys ...string) Tuple {
	out := make(Tuple, len(keys))
	for _, k := range keys {
		if v, ok := t[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Union merges a and b. When both carry a key the value from a is kept.
func Union(a, b Tuple) Tuple {
	out := make(Tuple, len(a)+len(b))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Rename projects t onto the From keys of pairs and relabels them to To.
// Pairs whose From key is absent are skipped.
func Rename(pairs []RenamePair, t Tuple) Tuple {
	out := make(Tuple, len(pairs))
	for _, p := range pairs {
		if v, ok := t[p.From]; ok {
			out[p.To] = v
		}
	}
	return out
}

// Equal reports whether t and other hold the same set of (key, value) pairs.
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for k, v := range t {
		ov, ok := other[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Key returns a canonical encoding of t that does not depend on insertion
// order. Two tuples have the same Key iff they are Equal, which makes it
// usable as a Go map key.
func (t Tuple) Key() string {
	var b strings.Builder
	for _, k := range t.Keys() {
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		v := t[k]
		if v == nil {
			b.WriteString("nil")
		} else {
			b.WriteString(v.canonical())
		}
		b.WriteByte(';')
	}
	return b.String()
}

// Hash returns a 64-bit hash of the canonical encoding of t.
func (t Tuple) Hash() uint64 {
	return xxhash.Sum64String(t.Key())
}

// String renders t as `"key" => value, ` pairs in key order.
func (t Tuple) String() string {
	var b strings.Builder
	for _, k := range t.Keys() {
		b.WriteByte('"')
		b.WriteString(k)
		b.WriteString(`" => `)
		if v := t[k]; v != nil {
			b.WriteString(v.String())
		}
		b.WriteString(", ")
	}
	return b.String()
}
