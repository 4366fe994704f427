package schema

import "strings"

// ResolveKeyPath translates a dotted logical field path into the physical
// storage path, applying per-field storage key renames at every level. It
// descends embedded documents and lists of embedded documents; components
// below a record (schemaless) field pass through verbatim; "id" and "pk"
// resolve to the primary key storage key. The walk is bounded by the number
// of path components, so self-referential embedded schemas are safe here.
func (s *SchemaDefinition) ResolveKeyPath(path string) (string, error) {
	if path == "" {
		return "", s.configErrorf("empty field path in index declaration")
	}

	parts := strings.Split(path, ".")
	keys := make([]string, 0, len(parts))
	cur := s

	for i, part := range parts {
		if cur == nil {
			return "", s.configErrorf("cannot resolve %q: %q is not a document field", path, parts[i-1])
		}

		f := cur.Field(part)
		if f == nil {
			// Primary key aliases. Resolution of a renamed primary key is
			// fixed here, at definition time, not deferred to index build.
			if part == "id" || part == "pk" || part == DefaultPrimaryKey {
				keys = append(keys, cur.PrimaryKeyStorageKey())
				cur = nil
				continue
			}
			// The discriminator is written by the mapper, not declared as a
			// field, yet it is indexable.
			if part == cur.Discriminator() {
				keys = append(keys, part)
				cur = nil
				continue
			}
			return "", s.configErrorf("cannot resolve field path %q: unknown field %q", path, part)
		}

		keys = append(keys, f.Key())

		switch f.Type {
		case FieldTypeEmbedded:
			cur = f.Embedded
		case FieldTypeList:
			// Lists of embedded documents resolve through the element
			// schema; lists of scalars terminate the path.
			cur = f.Embedded
		case FieldTypeRecord:
			// Schemaless below this point: keep the remaining components.
			keys = append(keys, parts[i+1:]...)
			return strings.Join(keys, "."), nil
		default:
			cur = nil
		}
	}

	return strings.Join(keys, "."), nil
}
