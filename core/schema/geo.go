package schema

// GeoIndexes collects the geospatial index specs of a schema: the geo subset
// of its canonical spec list plus one implicit 2d spec per geopoint field,
// found by recursing through embedded document and embedded list fields with
// an identity visited-set against self-referential embedding. Reference
// fields are not followed: a reference is a link, and the referenced
// schema's geo indexes belong to its own collection.
func (s *SchemaDefinition) GeoIndexes() ([]IndexSpec, error) {
	specs, err := s.IndexSpecs()
	if err != nil {
		return nil, err
	}

	var geo []IndexSpec
	for _, spec := range specs {
		if spec.Geo() {
			geo = append(geo, spec)
		}
	}

	implicit := s.implicitGeoSpecs("", map[*SchemaDefinition]bool{})
	for _, spec := range implicit {
		if !containsSpec(geo, spec) {
			geo = append(geo, spec)
		}
	}
	return geo, nil
}

// implicitGeoSpecs derives one 2d spec per geopoint field, with storage key
// paths prefixed down through embedding levels.
func (s *SchemaDefinition) implicitGeoSpecs(prefix string, seen map[*SchemaDefinition]bool) []IndexSpec {
	if seen[s] {
		return nil
	}
	seen[s] = true

	var specs []IndexSpec
	for _, anc := range append(s.Ancestors(), s) {
		for _, f := range anc.Fields {
			key := prefix + f.Key()
			switch {
			case f.Type == FieldTypeGeoPoint:
				specs = append(specs, IndexSpec{Keys: []IndexKey{{Field: key, Direction: Geo2D}}})
			case f.Embedded != nil:
				specs = append(specs, f.Embedded.implicitGeoSpecs(key+".", seen)...)
			}
		}
	}
	return specs
}
