package document

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gorm.io/datatypes"
)

// Sections is the shape of a partial form submission: section name to a
// mapping from field name to its new value. The team section carries one
// extra nesting level (entry id -> member fields); everything else is a
// scalar leaf.
type Sections map[string]map[string]any

// Merge sets every (section, field[, subfield]) leaf from incoming into a
// copy of existing, creating intermediate objects as needed. Paths absent
// from incoming are left untouched; fields are never deleted, and an empty
// string overwrites a previous value.
func Merge(existing datatypes.JSON, incoming Sections) (datatypes.JSON, error) {
	doc := []byte(existing)
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	if !gjson.ValidBytes(doc) {
		return nil, &ParseError{Reason: "existing content is not valid json"}
	}

	var err error
	for section, fields := range incoming {
		for field, value := range fields {
			path := escapeKey(section) + "." + escapeKey(field)
			doc, err = setLeaf(doc, path, value)
			if err != nil {
				return nil, err
			}
		}
	}

	return datatypes.JSON(doc), nil
}

// setLeaf descends one extra level when the value is itself a mapping
// (repeated team entries); scalars are written in place.
func setLeaf(doc []byte, path string, value any) ([]byte, error) {
	nested, ok := value.(map[string]any)
	if !ok {
		out, err := sjson.SetBytes(doc, path, value)
		if err != nil {
			return nil, &ParseError{Reason: "set " + path, Err: err}
		}
		return out, nil
	}

	var err error
	for key, sub := range nested {
		doc, err = setLeaf(doc, path+"."+escapeKey(key), sub)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// escapeKey protects form field names against sjson path syntax.
func escapeKey(key string) string {
	if !strings.ContainsAny(key, ".*?|#@:\\") {
		return key
	}
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', ':', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
