package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventSchema() *SchemaDefinition {
	return &SchemaDefinition{
		Name: "Event",
		Fields: []*FieldDefinition{
			{Name: "title", Type: FieldTypeString},
			{Name: "category", Type: FieldTypeString},
			{Name: "addDate", Type: FieldTypeDateTime, StorageKey: "add_date"},
			{Name: "location", Type: FieldTypeGeoPoint},
		},
	}
}

func TestNormalizeIndexString(t *testing.T) {
	s := eventSchema()

	tests := []struct {
		name     string
		decl     any
		expected IndexSpec
	}{
		{
			"plain_ascending", "title",
			IndexSpec{Keys: []IndexKey{{Field: "title", Direction: Ascending}}},
		},
		{
			"descending_prefix", "-addDate",
			IndexSpec{Keys: []IndexKey{{Field: "add_date", Direction: Descending}}},
		},
		{
			"explicit_ascending_prefix", "+title",
			IndexSpec{Keys: []IndexKey{{Field: "title", Direction: Ascending}}},
		},
		{
			"geo_prefix", "*location",
			IndexSpec{Keys: []IndexKey{{Field: "location", Direction: Geo2D}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := s.normalizeIndex(tt.decl)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, spec)
		})
	}
}

func TestNormalizeIndexCompound(t *testing.T) {
	s := eventSchema()

	spec, err := s.normalizeIndex([]any{"category", "-addDate"})
	require.NoError(t, err)
	assert.Equal(t, []IndexKey{
		{Field: "category", Direction: Ascending},
		{Field: "add_date", Direction: Descending},
	}, spec.Keys)

	// []string declarations behave like []any of strings.
	spec, err = s.normalizeIndex([]string{"category", "-addDate"})
	require.NoError(t, err)
	assert.Len(t, spec.Keys, 2)
}

func TestNormalizeIndexDirectionPair(t *testing.T) {
	s := eventSchema()

	tests := []struct {
		name     string
		decl     any
		expected IndexKey
	}{
		{"int_descending", []any{"addDate", -1}, IndexKey{Field: "add_date", Direction: Descending}},
		{"int_ascending", []any{"title", 1}, IndexKey{Field: "title", Direction: Ascending}},
		{"float_descending", []any{"addDate", float64(-1)}, IndexKey{Field: "add_date", Direction: Descending}},
		{"geo_token", []any{"location", "2d"}, IndexKey{Field: "location", Direction: Geo2D}},
		{"token_overrides_prefix", []any{"-addDate", 1}, IndexKey{Field: "add_date", Direction: Ascending}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := s.normalizeIndex(tt.decl)
			require.NoError(t, err)
			require.Len(t, spec.Keys, 1)
			assert.Equal(t, tt.expected, spec.Keys[0])
		})
	}

	// A two-element pair whose second element is a field path is a compound
	// index of two fields, never a direction pair.
	spec, err := s.normalizeIndex([]any{"category", "title"})
	require.NoError(t, err)
	assert.Len(t, spec.Keys, 2)
}

func TestNormalizeIndexOptionsRecord(t *testing.T) {
	s := eventSchema()

	spec, err := s.normalizeIndex(map[string]any{
		"fields":             []any{"category", "-addDate"},
		"unique":             true,
		"sparse":             true,
		"expireAfterSeconds": 3600,
	})
	require.NoError(t, err)

	assert.True(t, spec.Unique)
	assert.True(t, spec.Sparse)
	require.NotNil(t, spec.ExpireAfter)
	assert.Equal(t, time.Hour, *spec.ExpireAfter)
	assert.Equal(t, []IndexKey{
		{Field: "category", Direction: Ascending},
		{Field: "add_date", Direction: Descending},
	}, spec.Keys)
}

func TestNormalizeIndexOptionsStruct(t *testing.T) {
	s := eventSchema()
	optOut := false

	spec, err := s.normalizeIndex(IndexOptions{
		Fields:        []any{"title"},
		Discriminator: &optOut,
	})
	require.NoError(t, err)
	require.NotNil(t, spec.Discriminator)
	assert.False(t, *spec.Discriminator)
}

func TestNormalizeIndexErrors(t *testing.T) {
	s := eventSchema()

	tests := []struct {
		name string
		decl any
	}{
		{"unknown_field", "nope"},
		{"conflicting_prefixes", "-*location"},
		{"geo_in_compound", []any{"*location", "title", "category"}},
		{"geo_prefix_with_ordering_token", []any{"*location", -1}},
		{"record_without_fields", map[string]any{"unique": true}},
		{"record_with_unknown_option", map[string]any{"fields": []any{"title"}, "shards": 4}},
		{"empty_compound", []any{}},
		{"unsupported_type", 42},
		{"unsupported_element_type", []any{"title", "category", 3.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.normalizeIndex(tt.decl)
			assert.Error(t, err)
		})
	}
}
