package metadata

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindInt
	KindFloat
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is an attribute value attached to a node. Exactly one of the
// payload fields is meaningful, selected by the kind.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Ref returns a reference to another element, serialized as its id.
func Ref(id string) Value { return Value{kind: KindRef, s: id} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNone reports whether v carries no value.
func (v Value) IsNone() bool { return v.kind == KindNone }

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNone:
		return true
	case KindString, KindRef:
		return v.s == other.s
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	default:
		return false
	}
}

// Text renders v the way a user would read it in a property panel.
func (v Value) Text() string {
	switch v.kind {
	case KindNone:
		return ""
	case KindString, KindRef:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON writes strings and references as JSON strings, numbers as
// JSON numbers and KindNone (or a non-finite float) as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNone:
		return []byte("null"), nil
	case KindString, KindRef:
		return json.Marshal(v.s)
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return strconv.AppendFloat(nil, v.f, 'g', -1, 64), nil
	default:
		return nil, fmt.Errorf("metadata: cannot encode value of %s", v.kind)
	}
}
