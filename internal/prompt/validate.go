package prompt

import "fmt"

// ValidateSegments reports the first segment that carries no known variant.
func ValidateSegments(segments []Segment) error {
	for i, s := range segments {
		if !s.Valid() {
			return fmt.Errorf("segments[%d]: invalid %q segment", i, s.Type)
		}
	}
	return nil
}

// ParseMaskedKeys maps key names (case-insensitive) to ParamKeys.
func ParseMaskedKeys(names []string) ([]ParamKey, error) {
	keys := make([]ParamKey, 0, len(names))
	for _, name := range names {
		k, ok := ParseParamKey(name)
		if !ok {
			return nil, fmt.Errorf("unknown parameter key %q", name)
		}
		keys = append(keys, k)
	}
	return keys, nil
}
