// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AttrKind identifies which variant an AttrValue holds.
type AttrKind int

const (
	KindString AttrKind = iota
	KindNumber
	KindBool
	KindStringList
)

func (k AttrKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStringList:
		return "string-list"
	default:
		return "unknown"
	}
}

// AttrValue is a tagged union over the value kinds an extractor may attach
// to a node: string, number, bool, or string list. The zero value is the
// empty string.
type AttrValue struct {
	kind AttrKind
	str  string
	num  float64
	b    bool
	list []string
}

// StringAttr returns an AttrValue holding a string.
func StringAttr(s string) AttrValue { return AttrValue{kind: KindString, str: s} }

// NumberAttr returns an AttrValue holding a number.
func NumberAttr(n float64) AttrValue { return AttrValue{kind: KindNumber, num: n} }

// BoolAttr returns an AttrValue holding a bool.
func BoolAttr(b bool) AttrValue { return AttrValue{kind: KindBool, b: b} }

// ListAttr returns an AttrValue holding a string list.
func ListAttr(items ...string) AttrValue {
	return AttrValue{kind: KindStringList, list: items}
}

// Kind returns the variant held by the value.
func (v AttrValue) Kind() AttrKind { return v.kind }

// AsString returns the string variant. The second result is false when the
// value holds a different kind.
func (v AttrValue) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the numeric variant.
func (v AttrValue) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the bool variant.
func (v AttrValue) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsStringList returns the string-list variant.
func (v AttrValue) AsStringList() ([]string, bool) {
	return v.list, v.kind == KindStringList
}

// Equal reports whether two values hold the same kind and contents.
func (v AttrValue) Equal(o AttrValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindStringList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for display and substring matching.
func (v AttrValue) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v.num), "0"), ".")
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindStringList:
		return strings.Join(v.list, ", ")
	}
	return ""
}

// MarshalJSON encodes the value as its natural JSON representation.
func (v AttrValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.list)
	}
	return json.Marshal("")
}

// UnmarshalJSON decodes a JSON string, number, bool, or string array.
func (v *AttrValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = StringAttr(t)
	case float64:
		*v = NumberAttr(t)
	case bool:
		*v = BoolAttr(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("attribute list element %v is not a string", e)
			}
			items = append(items, s)
		}
		*v = ListAttr(items...)
	case nil:
		*v = StringAttr("")
	default:
		return fmt.Errorf("unsupported attribute value type %T", raw)
	}
	return nil
}

// MarshalYAML encodes the value as its natural YAML representation.
func (v AttrValue) MarshalYAML() (any, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return v.num, nil
	case KindBool:
		return v.b, nil
	case KindStringList:
		if v.list == nil {
			return []string{}, nil
		}
		return v.list, nil
	}
	return "", nil
}

// UnmarshalYAML decodes a YAML string, number, bool, or string sequence.
func (v *AttrValue) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = StringAttr(t)
	case int:
		*v = NumberAttr(float64(t))
	case float64:
		*v = NumberAttr(t)
	case bool:
		*v = BoolAttr(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("attribute list element %v is not a string", e)
			}
			items = append(items, s)
		}
		*v = ListAttr(items...)
	case nil:
		*v = StringAttr("")
	default:
		return fmt.Errorf("unsupported attribute value type %T", raw)
	}
	return nil
}

// Attributes is the open-schema attribute map attached to nodes. Any
// extractor may add any key; readers go through the typed accessors on
// AttrValue.
type Attributes map[string]AttrValue

// Clone returns a deep copy of the map.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if v.kind == KindStringList {
			v.list = append([]string(nil), v.list...)
		}
		out[k] = v
	}
	return out
}
