// Package schema defines the document schema descriptors consumed by the rest
// of the mapper: field definitions with their physical storage keys, the
// class-level metadata block (index declarations, inheritance flags), and the
// index-specification compiler that turns raw declarations into canonical
// index specs.
package schema

import (
	"strings"
	"sync"
)

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString    FieldType = "string"    // Text data
	FieldTypeInteger   FieldType = "integer"   // Whole numbers
	FieldTypeNumber    FieldType = "number"    // Floating point numbers
	FieldTypeBoolean   FieldType = "boolean"   // True/false values
	FieldTypeDateTime  FieldType = "datetime"  // Timestamps
	FieldTypeObjectID  FieldType = "objectid"  // Document identifiers
	FieldTypeGeoPoint  FieldType = "geopoint"  // Geospatial coordinate pair
	FieldTypeRecord    FieldType = "record"    // Schemaless key-value object
	FieldTypeList      FieldType = "list"      // Ordered list of items
	FieldTypeEmbedded  FieldType = "embedded"  // Nested document (containment)
	FieldTypeReference FieldType = "reference" // Link to a document in another collection
)

const (
	// DefaultPrimaryKey is the storage key of the implicit primary key field.
	DefaultPrimaryKey = "_id"
	// DefaultDiscriminatorKey is the storage key of the type tag written to
	// documents of schemas that share a collection with their subclasses.
	DefaultDiscriminatorKey = "_cls"
)

// FieldDefinition describes a single declared field of a document or embedded
// document schema.
type FieldDefinition struct {
	Name       string     `json:"name"`
	Type       FieldType  `json:"type"`
	StorageKey string     `json:"storageKey,omitempty"` // physical key; defaults to Name
	ItemsType  *FieldType `json:"itemsType,omitempty"`  // element type for list fields

	// Embedded is the nested schema for embedded and list-of-embedded fields.
	// A schema may embed itself; traversals guard against that by identity.
	Embedded *SchemaDefinition `json:"-"`
	// Reference is the target schema of a reference field. A reference is a
	// link, not containment, and is never followed by index traversals.
	Reference *SchemaDefinition `json:"-"`

	Required   bool     `json:"required,omitempty"`
	PrimaryKey bool     `json:"primaryKey,omitempty"`
	Unique     bool     `json:"unique,omitempty"`
	UniqueWith []string `json:"uniqueWith,omitempty"` // sibling paths, same embedding level
}

// Key returns the physical storage key of the field.
func (f *FieldDefinition) Key() string {
	if f.StorageKey != "" {
		return f.StorageKey
	}
	return f.Name
}

// SchemaDefinition is the descriptor for one document or embedded-document
// type. The descriptor graph is built once at definition time and is immutable
// afterwards; the only mutation is the lazily computed canonical index list.
type SchemaDefinition struct {
	Name string `json:"name"`
	// Collection overrides the physical collection name. When empty, the
	// lowercased name of the oldest concrete ancestor (or of the schema
	// itself) is used. Subclasses of a concrete polymorphic schema share its
	// collection.
	Collection string `json:"collection,omitempty"`

	// Fields in declaration order. Order matters: derived index specs follow
	// field declaration order.
	Fields []*FieldDefinition `json:"fields"`

	// Indexes holds raw, as-authored index declarations: a plain field path
	// string, a compound slice, or an options record (map or IndexOptions).
	Indexes []any `json:"indexes,omitempty"`

	AllowInheritance bool              `json:"allowInheritance,omitempty"`
	Abstract         bool              `json:"abstract,omitempty"`
	Parent           *SchemaDefinition `json:"-"`

	// DiscriminatorKey overrides DefaultDiscriminatorKey.
	DiscriminatorKey string `json:"discriminatorKey,omitempty"`

	specsOnce sync.Once
	specs     []IndexSpec
	specsErr  error
}

// Field looks a declared field up by logical name, consulting ancestors when
// the schema does not declare it itself.
func (s *SchemaDefinition) Field(name string) *FieldDefinition {
	for cur := s; cur != nil; cur = cur.Parent {
		for _, f := range cur.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// Ancestors returns the ancestor chain oldest-first, excluding the schema
// itself. Abstract ancestors are included; they contribute declarations even
// though they never own a collection.
func (s *SchemaDefinition) Ancestors() []*SchemaDefinition {
	var chain []*SchemaDefinition
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		chain = append([]*SchemaDefinition{cur}, chain...)
	}
	return chain
}

// CollectionName returns the physical collection backing this schema. For a
// subclass of a concrete schema this is the root concrete ancestor's
// collection, so polymorphic types share storage.
func (s *SchemaDefinition) CollectionName() string {
	root := s
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		if !cur.Abstract {
			root = cur
		}
	}
	if root.Collection != "" {
		return root.Collection
	}
	return strings.ToLower(root.Name)
}

// Discriminator returns the storage key of the polymorphism type tag.
func (s *SchemaDefinition) Discriminator() string {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.DiscriminatorKey != "" {
			return cur.DiscriminatorKey
		}
	}
	return DefaultDiscriminatorKey
}

// PrimaryKeyStorageKey returns the storage key the primary key lives under.
// A field flagged PrimaryKey renames it; otherwise it is the implicit _id.
func (s *SchemaDefinition) PrimaryKeyStorageKey() string {
	for cur := s; cur != nil; cur = cur.Parent {
		for _, f := range cur.Fields {
			if f.PrimaryKey {
				return f.Key()
			}
		}
	}
	return DefaultPrimaryKey
}

// Polymorphic reports whether documents of this schema share a collection
// with other types and therefore carry the discriminator field. The flag
// is inherited: subclasses of a polymorphic schema are polymorphic.
func (s *SchemaDefinition) Polymorphic() bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.AllowInheritance {
			return true
		}
	}
	return false
}

// Document is a generic record as stored in a collection.
type Document map[string]any
