package schema

import (
	"strings"
	"time"
)

// Direction encodes the ordering of one index key. Geospatial 2d indexes use
// a marker direction rather than an ordering.
type Direction int8

const (
	Ascending  Direction = 1
	Descending Direction = -1
	Geo2D      Direction = 2
)

// String renders the direction the way the backing store's catalog does.
func (d Direction) String() string {
	switch d {
	case Descending:
		return "-1"
	case Geo2D:
		return "2d"
	default:
		return "1"
	}
}

// IndexKey is one (storage key, direction) pair of a canonical index spec.
type IndexKey struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// IndexSpec is the canonical, normalized form of one index declaration: an
// ordered key sequence plus an options set. Canonical equality, not the raw
// declaration, is the unit of de-duplication everywhere downstream.
type IndexSpec struct {
	Keys []IndexKey `json:"keys"`

	Unique      bool           `json:"unique,omitempty"`
	Sparse      bool           `json:"sparse,omitempty"`
	Background  bool           `json:"background,omitempty"`
	ExpireAfter *time.Duration `json:"expireAfter,omitempty"`

	// Discriminator opts a declaration out of discriminator prefixing when
	// explicitly false. It is merge policy, not part of canonical equality.
	Discriminator *bool `json:"discriminator,omitempty"`
}

// SameKeys reports whether both specs index the same key sequence.
func (s IndexSpec) SameKeys(o IndexSpec) bool {
	if len(s.Keys) != len(o.Keys) {
		return false
	}
	for i, k := range s.Keys {
		if k != o.Keys[i] {
			return false
		}
	}
	return true
}

// Equal reports canonical equality: identical key sequence and options.
func (s IndexSpec) Equal(o IndexSpec) bool {
	if !s.SameKeys(o) {
		return false
	}
	if s.Unique != o.Unique || s.Sparse != o.Sparse || s.Background != o.Background {
		return false
	}
	if (s.ExpireAfter == nil) != (o.ExpireAfter == nil) {
		return false
	}
	if s.ExpireAfter != nil && *s.ExpireAfter != *o.ExpireAfter {
		return false
	}
	return true
}

// Geo reports whether any key carries the geospatial marker.
func (s IndexSpec) Geo() bool {
	for _, k := range s.Keys {
		if k.Direction == Geo2D {
			return true
		}
	}
	return false
}

// IndexName derives the store-style index name from the key sequence,
// e.g. "_cls_1_addDate_-1".
func (s IndexSpec) IndexName() string {
	parts := make([]string, 0, len(s.Keys)*2)
	for _, k := range s.Keys {
		parts = append(parts, k.Field, k.Direction.String())
	}
	return strings.Join(parts, "_")
}

func cloneSpecs(specs []IndexSpec) []IndexSpec {
	out := make([]IndexSpec, len(specs))
	for i, sp := range specs {
		out[i] = sp
		out[i].Keys = append([]IndexKey(nil), sp.Keys...)
	}
	return out
}

func containsSpec(specs []IndexSpec, spec IndexSpec) bool {
	for _, sp := range specs {
		if sp.Equal(spec) {
			return true
		}
	}
	return false
}
