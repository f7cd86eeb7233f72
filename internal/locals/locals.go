// Package locals provides the immutable data record handed to page templates.
//
// A Locals value is never modified in place: With, Merge and Without return a
// new record sharing nothing mutable with the receiver, so sibling branches of
// a route expansion can each extend their parent's record independently.
package locals

import (
	"encoding/json"
	"maps"
	"slices"
)

// Reserved keys injected by the engine just before a page is rendered.
const (
	KeyRouteName  = "routeName"
	KeyPath       = "path"
	KeyRoute      = "route"
	KeyRouter     = "router"
	KeyParams     = "params"
	KeyRedirectTo = "redirectTo"
)

// nonData lists reserved keys holding engine objects rather than page data.
var nonData = []string{KeyRoute, KeyRouter}

// Locals is an immutable key/value record.
type Locals struct {
	m map[string]any
}

// New returns a record holding a shallow copy of base.
func New(base map[string]any) Locals {
	return Locals{m: maps.Clone(base)}
}

// Empty returns a record with no keys.
func Empty() Locals { return Locals{} }

// With returns a copy of l with key set to value.
func (l Locals) With(key string, value any) Locals {
	m := make(map[string]any, len(l.m)+1)
	maps.Copy(m, l.m)
	m[key] = value
	return Locals{m: m}
}

// Merge returns a copy of l with every key of other set on top.
func (l Locals) Merge(other map[string]any) Locals {
	if len(other) == 0 {
		return l
	}
	m := make(map[string]any, len(l.m)+len(other))
	maps.Copy(m, l.m)
	maps.Copy(m, other)
	return Locals{m: m}
}

// Without returns a copy of l with the given keys removed.
func (l Locals) Without(keys ...string) Locals {
	m := maps.Clone(l.m)
	for _, k := range keys {
		delete(m, k)
	}
	return Locals{m: m}
}

// Get returns the value stored under key.
func (l Locals) Get(key string) (any, bool) {
	v, ok := l.m[key]
	return v, ok
}

// String returns the value under key if it is a string.
func (l Locals) String(key string) string {
	s, _ := l.m[key].(string)
	return s
}

// Len returns the number of keys.
func (l Locals) Len() int { return len(l.m) }

// Keys returns the keys in sorted order.
func (l Locals) Keys() []string {
	return slices.Sorted(maps.Keys(l.m))
}

// Map returns a copy of the record as a plain map, suitable for template data.
func (l Locals) Map() map[string]any {
	m := maps.Clone(l.m)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

// Canonical serializes the data keys of l deterministically (sorted keys),
// leaving out reserved keys that hold engine objects.
func (l Locals) Canonical() ([]byte, error) {
	return json.Marshal(l.Without(nonData...).m)
}

// MarshalJSON implements json.Marshaler.
func (l Locals) MarshalJSON() ([]byte, error) {
	if l.m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l.m)
}
