package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolve walks root along a dot-separated path, one segment at a time.
// Maps are indexed by key and arrays by numeric index. It reports false as
// soon as a segment is missing or the current value cannot be descended
// into. A reached JSON null is present: (nil, true).
func Resolve(root interface{}, path string) (interface{}, bool) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case Document:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// IdentityValue resolves the identity field for doc and renders it as the
// search term. Unresolvable, null and empty-string values are missing.
func IdentityValue(t Table, doc Document) (string, error) {
	m, err := t.Identity()
	if err != nil {
		return "", err
	}
	v, ok := Resolve(doc, m.InputKey)
	if !ok || v == nil {
		return "", fmt.Errorf("%w (path %q)", ErrMissingIdentity, m.InputKey)
	}
	name := fmt.Sprint(v)
	if name == "" {
		return "", fmt.Errorf("%w (path %q)", ErrMissingIdentity, m.InputKey)
	}
	return name, nil
}

// BuildPayload resolves every mapping against doc and assigns the present
// values under their destination keys, in table order. Unresolved paths are
// left out of the payload. The identity field is checked first.
func BuildPayload(t Table, doc Document) (Payload, error) {
	if _, err := IdentityValue(t, doc); err != nil {
		return nil, err
	}
	payload := make(Payload, len(t))
	for _, m := range t {
		if v, ok := Resolve(doc, m.InputKey); ok {
			payload[m.DestinationKey] = v
		}
	}
	return payload, nil
}
