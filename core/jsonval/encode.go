package jsonval

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Marshal serializes the value with all object keys in sorted order.
// Numeric literals are emitted exactly as parsed.
func (v *Value) Marshal() []byte {
	var buf bytes.Buffer
	v.encode(&buf, "", "")
	return buf.Bytes()
}

// MarshalIndent serializes the value with sorted keys and indentation.
func (v *Value) MarshalIndent(indent string) []byte {
	var buf bytes.Buffer
	v.encode(&buf, "", indent)
	return buf.Bytes()
}

func (v *Value) encode(buf *bytes.Buffer, prefix, indent string) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")

	case KindBool:
		if v.boo {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}

	case KindNumber:
		buf.WriteString(v.num)

	case KindString:
		writeEscaped(buf, v.str)

	case KindArray:
		if len(v.arr) == 0 {
			buf.WriteString("[]")
			return
		}
		inner := prefix + indent
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if indent != "" {
				buf.WriteByte('\n')
				buf.WriteString(inner)
			}
			item.encode(buf, inner, indent)
		}
		if indent != "" {
			buf.WriteByte('\n')
			buf.WriteString(prefix)
		}
		buf.WriteByte(']')

	case KindObject:
		if len(v.obj) == 0 {
			buf.WriteString("{}")
			return
		}
		inner := prefix + indent
		buf.WriteByte('{')
		for i, key := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if indent != "" {
				buf.WriteByte('\n')
				buf.WriteString(inner)
			}
			writeEscaped(buf, key)
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			v.obj[key].encode(buf, inner, indent)
		}
		if indent != "" {
			buf.WriteByte('\n')
			buf.WriteString(prefix)
		}
		buf.WriteByte('}')
	}
}

// writeEscaped delegates string escaping to the json package so escape
// sequences stay consistent with ordinary marshaling.
func writeEscaped(buf *bytes.Buffer, s string) {
	encoded, err := json.Marshal(s)
	if err != nil {
		buf.WriteString(`""`)
		return
	}
	buf.Write(encoded)
}
