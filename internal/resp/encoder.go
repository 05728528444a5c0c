package resp

import (
	"bytes"
	"math"
	"strconv"
)

// ProtoVersion is the negotiated RESP protocol version for a connection.
type ProtoVersion int

const (
	RESP2 ProtoVersion = 2
	RESP3 ProtoVersion = 3
)

// Encode appends the wire representation of v to dst at the given protocol
// version, downgrading RESP3-only variants per §4.1 when ver is RESP2.
func Encode(dst *bytes.Buffer, v Value, ver ProtoVersion) {
	if ver == RESP2 {
		v = downgrade(v)
	}
	encode(dst, v, ver)
}

// EncodeBytes is a convenience wrapper returning a freshly allocated buffer.
func EncodeBytes(v Value, ver ProtoVersion) []byte {
	var buf bytes.Buffer
	Encode(&buf, v, ver)
	return buf.Bytes()
}

func downgrade(v Value) Value {
	switch v.Type {
	case TypeMap:
		items := make([]Value, 0, len(v.Pairs)*2)
		for _, p := range v.Pairs {
			items = append(items, downgrade(p.Key), downgrade(p.Val))
		}
		return NewArray(items)
	case TypeSet:
		items := make([]Value, 0, len(v.Array))
		for _, e := range v.Array {
			items = append(items, downgrade(e))
		}
		return NewArray(items)
	case TypeBoolean:
		if v.Bool {
			return NewInteger(1)
		}
		return NewInteger(0)
	case TypeDouble:
		return NewBulkStringFrom(formatDouble(v.Dbl))
	case TypeNull:
		return NullBulkString()
	case TypeBigNumber:
		return NewBulkStringFrom(v.Str)
	case TypeVerbatimString:
		return NewBulkStringFrom(v.Str)
	case TypePush:
		items := make([]Value, 0, len(v.Array))
		for _, e := range v.Array {
			items = append(items, downgrade(e))
		}
		return NewArray(items)
	case TypeArray:
		if !v.ArrSet {
			return v
		}
		items := make([]Value, len(v.Array))
		for i, e := range v.Array {
			items[i] = downgrade(e)
		}
		return NewArray(items)
	default:
		return v
	}
}

func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func encode(dst *bytes.Buffer, v Value, ver ProtoVersion) {
	switch v.Type {
	case TypeSimpleString:
		if containsCRLF(v.Str) {
			writeBulk(dst, '$', []byte(v.Str))
			return
		}
		writeLine(dst, '+', v.Str)
	case TypeError:
		if containsCRLF(v.Str) {
			marker := byte('$')
			if ver == RESP3 {
				marker = '!'
			}
			writeBulk(dst, marker, []byte(v.Str))
			return
		}
		writeLine(dst, '-', v.Str)
	case TypeInteger:
		writeLine(dst, ':', strconv.FormatInt(v.Int, 10))
	case TypeBulkString:
		if !v.BulkSet {
			dst.WriteString("$-1\r\n")
			return
		}
		writeBulk(dst, '$', v.Bulk)
	case TypeVerbatimString:
		payload := append([]byte(v.VFmt+":"), []byte(v.Str)...)
		writeBulk(dst, '=', payload)
	case TypeBigNumber:
		writeLine(dst, '(', v.Str)
	case TypeBoolean:
		dst.WriteByte('#')
		if v.Bool {
			dst.WriteByte('t')
		} else {
			dst.WriteByte('f')
		}
		dst.WriteString("\r\n")
	case TypeDouble:
		writeLine(dst, ',', formatDouble(v.Dbl))
	case TypeNull:
		dst.WriteString("_\r\n")
	case TypeArray:
		if !v.ArrSet {
			dst.WriteString("*-1\r\n")
			return
		}
		writeAggregateHeader(dst, '*', len(v.Array))
		for _, e := range v.Array {
			encode(dst, e, ver)
		}
	case TypeSet:
		writeAggregateHeader(dst, '~', len(v.Array))
		for _, e := range v.Array {
			encode(dst, e, ver)
		}
	case TypePush:
		writeAggregateHeader(dst, '>', len(v.Array))
		for _, e := range v.Array {
			encode(dst, e, ver)
		}
	case TypeMap:
		writeAggregateHeader(dst, '%', len(v.Pairs))
		for _, p := range v.Pairs {
			encode(dst, p.Key, ver)
			encode(dst, p.Val, ver)
		}
	}
}

func writeLine(dst *bytes.Buffer, marker byte, s string) {
	dst.WriteByte(marker)
	dst.WriteString(s)
	dst.WriteString("\r\n")
}

func writeBulk(dst *bytes.Buffer, marker byte, b []byte) {
	dst.WriteByte(marker)
	dst.WriteString(strconv.Itoa(len(b)))
	dst.WriteString("\r\n")
	dst.Write(b)
	dst.WriteString("\r\n")
}

func writeAggregateHeader(dst *bytes.Buffer, marker byte, n int) {
	dst.WriteByte(marker)
	dst.WriteString(strconv.Itoa(n))
	dst.WriteString("\r\n")
}

func containsCRLF(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return true
		}
	}
	return false
}
