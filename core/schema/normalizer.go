package schema

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

// IndexOptions is the record form of an index declaration, carrying the key
// list plus index options. Map declarations decode into it.
type IndexOptions struct {
	Fields             []any `json:"fields" mapstructure:"fields"`
	Unique             bool  `json:"unique,omitempty" mapstructure:"unique"`
	Sparse             bool  `json:"sparse,omitempty" mapstructure:"sparse"`
	Background         bool  `json:"background,omitempty" mapstructure:"background"`
	ExpireAfterSeconds *int  `json:"expireAfterSeconds,omitempty" mapstructure:"expireAfterSeconds"`
	// Discriminator set to false keeps the discriminator key out of this
	// index even on a polymorphic schema.
	Discriminator *bool `json:"discriminator,omitempty" mapstructure:"discriminator"`
}

// normalizeIndex converts one raw, as-authored index declaration into its
// canonical spec. Accepted shapes: a field path string with an optional "-"
// (descending) or "*"/"+" (geospatial / ascending) prefix, a slice of such
// strings for a compound index, a two-element (path, direction) pair, a
// map[string]any options record, or IndexOptions directly. Pure transform;
// all failures are configuration errors.
func (s *SchemaDefinition) normalizeIndex(decl any) (IndexSpec, error) {
	switch v := decl.(type) {
	case string:
		key, err := s.parseIndexKey(v)
		if err != nil {
			return IndexSpec{}, err
		}
		return IndexSpec{Keys: []IndexKey{key}}, nil

	case []string:
		elems := make([]any, len(v))
		for i, e := range v {
			elems[i] = e
		}
		return s.normalizeKeyList(elems)

	case []any:
		return s.normalizeKeyList(v)

	case IndexOptions:
		return s.normalizeOptions(v)

	case map[string]any:
		if _, ok := v["fields"]; !ok {
			return IndexSpec{}, s.configErrorf("index declaration record is missing a 'fields' key")
		}
		var opts IndexOptions
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &opts,
			ErrorUnused: true,
		})
		if err != nil {
			return IndexSpec{}, err
		}
		if err := decoder.Decode(v); err != nil {
			return IndexSpec{}, s.configErrorf("malformed index declaration record: %v", err)
		}
		return s.normalizeOptions(opts)

	default:
		return IndexSpec{}, s.configErrorf("unsupported index declaration type %T", decl)
	}
}

func (s *SchemaDefinition) normalizeOptions(opts IndexOptions) (IndexSpec, error) {
	if opts.Fields == nil {
		return IndexSpec{}, s.configErrorf("index declaration record is missing a 'fields' key")
	}
	spec, err := s.normalizeKeyList(opts.Fields)
	if err != nil {
		return IndexSpec{}, err
	}
	spec.Unique = opts.Unique
	spec.Sparse = opts.Sparse
	spec.Background = opts.Background
	spec.Discriminator = opts.Discriminator
	if opts.ExpireAfterSeconds != nil {
		d := time.Duration(*opts.ExpireAfterSeconds) * time.Second
		spec.ExpireAfter = &d
	}
	return spec, nil
}

// normalizeKeyList handles the compound forms. A two-element list whose
// second element is a direction token is a single explicit (key, direction)
// pair, not two fields.
func (s *SchemaDefinition) normalizeKeyList(elems []any) (IndexSpec, error) {
	if len(elems) == 0 {
		return IndexSpec{}, s.configErrorf("compound index declaration has no fields")
	}

	if len(elems) == 2 {
		if path, ok := elems[0].(string); ok {
			if dir, ok := directionToken(elems[1]); ok {
				key, err := s.parseIndexKey(path)
				if err != nil {
					return IndexSpec{}, err
				}
				if key.Direction == Geo2D && dir != Geo2D {
					return IndexSpec{}, s.configErrorf("geospatial marker on %q conflicts with explicit direction", path)
				}
				key.Direction = dir
				return IndexSpec{Keys: []IndexKey{key}}, nil
			}
		}
	}

	keys := make([]IndexKey, 0, len(elems))
	for _, el := range elems {
		switch e := el.(type) {
		case string:
			key, err := s.parseIndexKey(e)
			if err != nil {
				return IndexSpec{}, err
			}
			keys = append(keys, key)
		case []any:
			pair, err := s.normalizeKeyList(e)
			if err != nil {
				return IndexSpec{}, err
			}
			keys = append(keys, pair.Keys...)
		default:
			return IndexSpec{}, s.configErrorf("unsupported index field element type %T", el)
		}
	}

	spec := IndexSpec{Keys: keys}
	if spec.Geo() && len(keys) > 1 {
		return IndexSpec{}, s.configErrorf("geospatial index keys cannot be part of a compound declaration")
	}
	return spec, nil
}

// parseIndexKey resolves one prefixed field path into a canonical key.
func (s *SchemaDefinition) parseIndexKey(raw string) (IndexKey, error) {
	dir := Ascending
	path := raw

	switch {
	case len(path) > 0 && path[0] == '-':
		dir = Descending
		path = path[1:]
	case len(path) > 0 && path[0] == '+':
		path = path[1:]
	case len(path) > 0 && path[0] == '*':
		dir = Geo2D
		path = path[1:]
	}

	if len(path) > 0 && (path[0] == '-' || path[0] == '+' || path[0] == '*') {
		return IndexKey{}, s.configErrorf("conflicting prefixes in index field %q", raw)
	}

	resolved, err := s.ResolveKeyPath(path)
	if err != nil {
		return IndexKey{}, err
	}
	return IndexKey{Field: resolved, Direction: dir}, nil
}

func directionToken(v any) (Direction, bool) {
	switch t := v.(type) {
	case Direction:
		return t, true
	case int:
		return intDirection(int64(t))
	case int8:
		return intDirection(int64(t))
	case int32:
		return intDirection(int64(t))
	case int64:
		return intDirection(t)
	case float64:
		return intDirection(int64(t))
	case string:
		if t == "2d" {
			return Geo2D, true
		}
	}
	return 0, false
}

func intDirection(v int64) (Direction, bool) {
	switch v {
	case 1:
		return Ascending, true
	case -1:
		return Descending, true
	}
	return 0, false
}
