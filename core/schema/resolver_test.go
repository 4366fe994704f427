package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func datedSchema() *SchemaDefinition {
	embeddedDate := &SchemaDefinition{
		Name: "EmbeddedDate",
		Fields: []*FieldDefinition{
			{Name: "year", Type: FieldTypeInteger, StorageKey: "yr"},
			{Name: "month", Type: FieldTypeInteger},
		},
	}
	tag := &SchemaDefinition{
		Name: "Tag",
		Fields: []*FieldDefinition{
			{Name: "name", Type: FieldTypeString, StorageKey: "tag"},
		},
	}
	return &SchemaDefinition{
		Name: "LogEntry",
		Fields: []*FieldDefinition{
			{Name: "date", Type: FieldTypeEmbedded, StorageKey: "addDate", Embedded: embeddedDate},
			{Name: "tags", Type: FieldTypeList, Embedded: tag},
			{Name: "meta", Type: FieldTypeRecord},
			{Name: "title", Type: FieldTypeString},
		},
	}
}

func TestResolveKeyPath(t *testing.T) {
	s := datedSchema()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"plain_field", "title", "title"},
		{"renamed_embedded_root", "date", "addDate"},
		{"rename_at_both_levels", "date.year", "addDate.yr"},
		{"unrenamed_leaf", "date.month", "addDate.month"},
		{"list_element_rename", "tags.name", "tags.tag"},
		{"record_passthrough", "meta.source.host", "meta.source.host"},
		{"pk_alias", "pk", "_id"},
		{"id_alias", "id", "_id"},
		{"storage_pk_alias", "_id", "_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := s.ResolveKeyPath(tt.path)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestResolveKeyPathRenamedPrimaryKey(t *testing.T) {
	s := &SchemaDefinition{
		Name: "Account",
		Fields: []*FieldDefinition{
			{Name: "email", Type: FieldTypeString, PrimaryKey: true},
		},
	}

	resolved, err := s.ResolveKeyPath("pk")
	assert.NoError(t, err)
	assert.Equal(t, "email", resolved)
}

func TestResolveKeyPathErrors(t *testing.T) {
	s := datedSchema()

	tests := []struct {
		name string
		path string
	}{
		{"unknown_field", "nope"},
		{"unknown_nested_field", "date.day"},
		{"path_through_scalar", "title.length"},
		{"path_below_pk_alias", "pk.sub"},
		{"empty_path", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ResolveKeyPath(tt.path)
			assert.Error(t, err)
			var cfgErr *ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestResolveKeyPathInheritedField(t *testing.T) {
	parent := &SchemaDefinition{
		Name:             "Base",
		AllowInheritance: true,
		Fields: []*FieldDefinition{
			{Name: "createdAt", Type: FieldTypeDateTime, StorageKey: "created_at"},
		},
	}
	child := &SchemaDefinition{
		Name:   "Derived",
		Parent: parent,
		Fields: []*FieldDefinition{
			{Name: "extra", Type: FieldTypeString},
		},
	}

	resolved, err := child.ResolveKeyPath("createdAt")
	assert.NoError(t, err)
	assert.Equal(t, "created_at", resolved)
}

func TestResolveKeyPathSelfEmbedding(t *testing.T) {
	node := &SchemaDefinition{Name: "TreeNode"}
	node.Fields = []*FieldDefinition{
		{Name: "value", Type: FieldTypeString},
		{Name: "children", Type: FieldTypeList, Embedded: node},
	}

	resolved, err := node.ResolveKeyPath("children.children.value")
	assert.NoError(t, err)
	assert.Equal(t, "children.children.value", resolved)
}
