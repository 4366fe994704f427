package schema

// IndexSpecs returns the canonical index spec list for the schema: inherited
// declarations merged oldest-ancestor-first, discriminator prefixing applied,
// implicit geospatial and unique specs appended. The list is computed once
// and cached on the descriptor; callers receive a copy, so the cached list
// survives any mutation by its consumers. Failures are never cached as a
// partial list.
func (s *SchemaDefinition) IndexSpecs() ([]IndexSpec, error) {
	s.specsOnce.Do(func() {
		s.specs, s.specsErr = s.compileIndexSpecs()
		if s.specsErr != nil {
			s.specs = nil
		}
	})
	if s.specsErr != nil {
		return nil, s.specsErr
	}
	return cloneSpecs(s.specs), nil
}

func (s *SchemaDefinition) compileIndexSpecs() ([]IndexSpec, error) {
	var merged []IndexSpec

	// Ancestors contribute first, oldest first, so a child's list is always
	// a superset of its parent's with first-seen order preserved. Raw
	// declarations are normalized against the declaring schema; field lookup
	// still sees the whole chain.
	chain := append(s.Ancestors(), s)
	for _, anc := range chain {
		for _, raw := range anc.Indexes {
			spec, err := anc.normalizeIndex(raw)
			if err != nil {
				return nil, err
			}
			if !containsSpec(merged, spec) {
				merged = append(merged, spec)
			}
		}
	}

	if s.Polymorphic() {
		discriminator := s.Discriminator()
		for i := range merged {
			spec := &merged[i]
			if spec.Geo() {
				// Geospatial indexes need the special key first.
				continue
			}
			if spec.Discriminator != nil && !*spec.Discriminator {
				continue
			}
			if spec.Keys[0].Field == discriminator {
				continue
			}
			spec.Keys = append([]IndexKey{{Field: discriminator, Direction: Ascending}}, spec.Keys...)
		}

		// Prefixing can collapse declarations that differed only by an
		// explicit discriminator key, so dedup again on the prefixed form.
		var deduped []IndexSpec
		for _, spec := range merged {
			if !containsSpec(deduped, spec) {
				deduped = append(deduped, spec)
			}
		}
		merged = deduped
	}

	// Implicit unique specs come last and never receive a discriminator
	// prefix, whatever the schema's polymorphism flag says.
	unique, err := s.uniqueIndexSpecs("", s, map[*SchemaDefinition]bool{})
	if err != nil {
		return nil, err
	}
	for _, spec := range unique {
		if !containsSpec(merged, spec) {
			merged = append(merged, spec)
		}
	}

	return merged, nil
}

// uniqueIndexSpecs folds per-field unique and unique_with declarations into
// implicit unique specs, depth-first through embedded levels in field
// declaration order. A unique_with partner path is scoped to the declaring
// embedding level; the owning field's key always comes first.
func (s *SchemaDefinition) uniqueIndexSpecs(prefix string, root *SchemaDefinition, seen map[*SchemaDefinition]bool) ([]IndexSpec, error) {
	if seen[s] {
		return nil, nil
	}
	seen[s] = true

	var specs []IndexSpec
	for _, anc := range append(s.Ancestors(), s) {
		for _, f := range anc.Fields {
			key := prefix + f.Key()

			if f.Unique || len(f.UniqueWith) > 0 {
				keys := []IndexKey{{Field: key, Direction: Ascending}}
				for _, partner := range f.UniqueWith {
					resolved, err := s.ResolveKeyPath(partner)
					if err != nil {
						return nil, root.configErrorf("unique_with %q on field %q: %v", partner, f.Name, err)
					}
					keys = append(keys, IndexKey{Field: prefix + resolved, Direction: Ascending})
				}
				specs = append(specs, IndexSpec{Keys: keys, Unique: true})
			}

			if f.Embedded != nil {
				nested, err := f.Embedded.uniqueIndexSpecs(key+".", root, seen)
				if err != nil {
					return nil, err
				}
				specs = append(specs, nested...)
			}
		}
	}
	return specs, nil
}
