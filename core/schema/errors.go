package schema

import "fmt"

// ConfigurationError reports a malformed schema declaration: an index
// declaration that cannot be normalized, an unresolvable field path, or an
// options record without fields. It is raised at definition/compile time and
// is always fatal to schema registration.
type ConfigurationError struct {
	Schema string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("schema %q: %s", e.Schema, e.Detail)
}

func (s *SchemaDefinition) configErrorf(format string, args ...any) error {
	return &ConfigurationError{Schema: s.Name, Detail: fmt.Sprintf(format, args...)}
}
