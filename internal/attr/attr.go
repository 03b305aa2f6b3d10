// Package attr implements the tagged attribute-value encoding used by change
// record images. Each attribute is a single-entry object whose key is a type
// tag, for example {"S": "received"} or {"NULL": true}.
package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/workorders/internal/domain"
)

// Tag names the type of an attribute value.
type Tag string

// The closed set of tags a work order image may use.
const (
	TagString Tag = "S"
	TagNumber Tag = "N"
	TagBool   Tag = "BOOL"
	TagNull   Tag = "NULL"
)

// Value is one tagged attribute. Data is a string for S and N and a bool for
// BOOL and NULL. Values read from the wire with any other tag keep their raw
// payload in Data and fail to decode.
type Value struct {
	Tag  Tag
	Data any
}

// Image is the attribute map of one stored record.
type Image map[string]Value

// String returns an S value.
func String(s string) Value { return Value{Tag: TagString, Data: s} }

// Number returns an N value. Numbers travel as their decimal text.
func Number(n string) Value { return Value{Tag: TagNumber, Data: n} }

// Bool returns a BOOL value.
func Bool(b bool) Value { return Value{Tag: TagBool, Data: b} }

// Null returns a NULL value.
func Null() Value { return Value{Tag: TagNull, Data: true} }

// MarshalJSON encodes the value as {"<tag>": <data>}.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Tag == "" {
		return nil, fmt.Errorf("attribute value has no tag")
	}
	return json.Marshal(map[string]any{string(v.Tag): v.Data})
}

// UnmarshalJSON accepts exactly one tag per value.
func (v *Value) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("attribute value must carry exactly one tag, got %d", len(m))
	}
	for tag, raw := range m {
		var data any
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&data); err != nil {
			return err
		}
		v.Tag = Tag(tag)
		v.Data = data
	}
	return nil
}

// DecodeError reports an attribute that could not be turned into a plain value.
type DecodeError struct {
	Attribute string
	Reason    string
}

func (e *DecodeError) Error() string {
	if e.Attribute == "" {
		return "decode: " + e.Reason
	}
	return fmt.Sprintf("decode attribute %q: %s", e.Attribute, e.Reason)
}

// Unwrap lets errors.Is(err, domain.ErrDecode) match.
func (e *DecodeError) Unwrap() error {
	return domain.ErrDecode
}

// Decode returns the plain value held by v: a string for S and N, a bool for
// BOOL, nil for NULL. Unknown tags are an error.
func Decode(v Value) (any, error) {
	switch v.Tag {
	case TagString, TagNumber:
		s, ok := v.Data.(string)
		if !ok {
			return nil, &DecodeError{Reason: fmt.Sprintf("tag %s holds %T, want string", v.Tag, v.Data)}
		}
		return s, nil
	case TagBool:
		b, ok := v.Data.(bool)
		if !ok {
			return nil, &DecodeError{Reason: fmt.Sprintf("tag %s holds %T, want bool", v.Tag, v.Data)}
		}
		return b, nil
	case TagNull:
		return nil, nil
	}
	return nil, &DecodeError{Reason: fmt.Sprintf("unrecognized tag %q", v.Tag)}
}

// DecodeImage decodes every attribute of img.
func DecodeImage(img Image) (map[string]any, error) {
	out := make(map[string]any, len(img))
	for _, name := range sortedNames(img) {
		plain, err := Decode(img[name])
		if err != nil {
			if de, ok := err.(*DecodeError); ok {
				de.Attribute = name
			}
			return nil, err
		}
		out[name] = plain
	}
	return out, nil
}

func sortedNames(img Image) []string {
	names := make([]string, 0, len(img))
	for name := range img {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
