package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PathRewrites is an ordered list of rewrite rules. It deserialises from
// either an array of {pattern, replacement} objects or an object whose keys
// are patterns; the object form preserves key order, which matters because
// only the first matching rule applies.
type PathRewrites []PathRewrite

// UnmarshalJSON accepts both the array and the object form.
func (p *PathRewrites) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []PathRewrite
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*p = list
		return nil
	}

	// Object form: walk the token stream so key order is preserved, which
	// plain map unmarshaling would lose.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("pathRewrite must be an array or an object")
	}

	var rules []PathRewrite
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("pathRewrite keys must be strings")
		}
		var replacement string
		if err := dec.Decode(&replacement); err != nil {
			return fmt.Errorf("pathRewrite %q: replacement must be a string", key)
		}
		rules = append(rules, PathRewrite{Pattern: key, Replacement: replacement})
	}
	*p = rules
	return nil
}

// UnmarshalYAML accepts both a sequence of rules and a mapping of pattern
// to replacement. YAML mappings keep their document order.
func (p *PathRewrites) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []PathRewrite
		if err := value.Decode(&list); err != nil {
			return err
		}
		*p = list
		return nil
	case yaml.MappingNode:
		var rules []PathRewrite
		for i := 0; i+1 < len(value.Content); i += 2 {
			rules = append(rules, PathRewrite{
				Pattern:     value.Content[i].Value,
				Replacement: value.Content[i+1].Value,
			})
		}
		*p = rules
		return nil
	default:
		return fmt.Errorf("pathRewrite must be a sequence or a mapping")
	}
}
