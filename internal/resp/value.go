// Package resp implements the RESP2/RESP3 wire protocol: a streaming parser
// and a protocol-version-aware encoder for the value types Redis clients and
// servers exchange.
package resp

import "fmt"

// Type identifies the concrete variant held by a Value.
type Type int

const (
	TypeSimpleString Type = iota
	TypeError
	TypeInteger
	TypeBulkString
	TypeArray
	TypeMap
	TypeSet
	TypeBoolean
	TypeDouble
	TypeBigNumber
	TypeVerbatimString
	TypeNull
	TypePush
)

// Value is the recursive RESP sum type. Only the fields relevant to Type are
// meaningful; the zero Value is a RESP2 null bulk string.
type Value struct {
	Type Type

	Str   string  // SimpleString, Error, BigNumber (decimal text), VerbatimString payload
	VFmt  string  // VerbatimString 3-byte format tag, e.g. "txt"
	Int   int64   // Integer
	Bool  bool    // Boolean
	Dbl   float64 // Double

	Bulk    []byte // BulkString payload; nil means RESP2 null
	BulkSet bool   // true if Bulk is a present (possibly empty) payload

	Array []Value // Array/Set/Push elements; nil Array with ArraySet=false means RESP2 null array
	ArrSet bool

	Pairs []Pair // Map key/value pairs
}

// Pair is one Map entry.
type Pair struct {
	Key, Val Value
}

// NewSimpleString builds a SimpleString value.
func NewSimpleString(s string) Value { return Value{Type: TypeSimpleString, Str: s} }

// NewError builds an Error value. Text should not include the leading '-' or CRLF.
func NewError(s string) Value { return Value{Type: TypeError, Str: s} }

// NewInteger builds an Integer value.
func NewInteger(i int64) Value { return Value{Type: TypeInteger, Int: i} }

// NewBulkString builds a present BulkString value.
func NewBulkString(b []byte) Value { return Value{Type: TypeBulkString, Bulk: b, BulkSet: true} }

// NewBulkStringFrom builds a present BulkString value from a Go string.
func NewBulkStringFrom(s string) Value { return NewBulkString([]byte(s)) }

// NullBulkString is the RESP2 null bulk string ($-1\r\n).
func NullBulkString() Value { return Value{Type: TypeBulkString} }

// NewArray builds a present Array value.
func NewArray(items []Value) Value { return Value{Type: TypeArray, Array: items, ArrSet: true} }

// NullArray is the RESP2 null array (*-1\r\n).
func NullArray() Value { return Value{Type: TypeArray} }

// NewSet builds a RESP3 Set value (encodes as Array at RESP2).
func NewSet(items []Value) Value { return Value{Type: TypeSet, Array: items, ArrSet: true} }

// NewMap builds a RESP3 Map value (encodes as flat Array at RESP2).
func NewMap(pairs []Pair) Value { return Value{Type: TypeMap, Pairs: pairs} }

// NewBoolean builds a RESP3 Boolean value (encodes as Integer 0/1 at RESP2).
func NewBoolean(b bool) Value { return Value{Type: TypeBoolean, Bool: b} }

// NewDouble builds a RESP3 Double value (encodes as BulkString at RESP2).
func NewDouble(f float64) Value { return Value{Type: TypeDouble, Dbl: f} }

// NewNull builds a RESP3 Null value (encodes as $-1\r\n at RESP2).
func NewNull() Value { return Value{Type: TypeNull} }

// NewPush builds a RESP3 Push value (out-of-band message array).
func NewPush(items []Value) Value { return Value{Type: TypePush, Array: items, ArrSet: true} }

// IsNull reports whether v denotes any of the null encodings (null bulk
// string, null array, or RESP3 Null).
func (v Value) IsNull() bool {
	switch v.Type {
	case TypeNull:
		return true
	case TypeBulkString:
		return !v.BulkSet
	case TypeArray:
		return !v.ArrSet
	default:
		return false
	}
}

// String renders a Value for debugging/log output; it is not wire format.
func (v Value) String() string {
	switch v.Type {
	case TypeSimpleString:
		return "+" + v.Str
	case TypeError:
		return "-" + v.Str
	case TypeInteger:
		return fmt.Sprintf(":%d", v.Int)
	case TypeBulkString:
		if !v.BulkSet {
			return "$-1"
		}
		return fmt.Sprintf("$%q", v.Bulk)
	case TypeArray:
		if !v.ArrSet {
			return "*-1"
		}
		return fmt.Sprintf("*%v", v.Array)
	default:
		return fmt.Sprintf("<resp type %d>", v.Type)
	}
}
