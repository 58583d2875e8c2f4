package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VarType is the element type of a telemetry channel.
type VarType uint8

const (
	VarChar VarType = iota
	VarBool
	VarInt
	VarBitField
	VarFloat
	VarDouble
)

var varTypeNames = [...]string{
	VarChar:     "char",
	VarBool:     "bool",
	VarInt:      "int",
	VarBitField: "bitfield",
	VarFloat:    "float",
	VarDouble:   "double",
}

func (t VarType) String() string {
	if int(t) < len(varTypeNames) {
		return varTypeNames[t]
	}
	return fmt.Sprintf("vartype(%d)", uint8(t))
}

// ParseVarType accepts the names produced by VarType.String, case-insensitively.
func ParseVarType(s string) (VarType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "char":
		return VarChar, nil
	case "bool":
		return VarBool, nil
	case "int":
		return VarInt, nil
	case "bitfield", "bit_field":
		return VarBitField, nil
	case "float", "float32":
		return VarFloat, nil
	case "double", "float64":
		return VarDouble, nil
	default:
		return 0, fmt.Errorf("unknown channel type %q", s)
	}
}

// ChannelDesc describes one named telemetry channel: a fixed-size array of a
// single element type. Scalars have Count 1.
type ChannelDesc struct {
	Name  string
	Type  VarType
	Count int
}

// Value is a single typed telemetry element. It is comparable and the zero
// Value of a type is that type's zero (0, false, NUL, +0.0).
type Value struct {
	Type VarType
	bits uint64
}

func Zero(t VarType) Value { return Value{Type: t} }

func Char(c byte) Value { return Value{Type: VarChar, bits: uint64(c)} }

func Bool(b bool) Value {
	if b {
		return Value{Type: VarBool, bits: 1}
	}
	return Value{Type: VarBool}
}

func Int(i int32) Value { return Value{Type: VarInt, bits: uint64(uint32(i))} }

func BitField(u uint32) Value { return Value{Type: VarBitField, bits: uint64(u)} }

func Float(f float32) Value { return Value{Type: VarFloat, bits: uint64(math.Float32bits(f))} }

func Double(f float64) Value { return Value{Type: VarDouble, bits: math.Float64bits(f)} }

// AsInt converts the value to an integer; floating point values are truncated.
func (v Value) AsInt() int64 {
	switch v.Type {
	case VarInt:
		return int64(int32(uint32(v.bits)))
	case VarFloat, VarDouble:
		return int64(v.AsFloat())
	default:
		return int64(v.bits)
	}
}

func (v Value) AsFloat() float64 {
	switch v.Type {
	case VarFloat:
		return float64(math.Float32frombits(uint32(v.bits)))
	case VarDouble:
		return math.Float64frombits(v.bits)
	default:
		return float64(v.AsInt())
	}
}

func (v Value) AsBool() bool { return v.bits != 0 }

// Equal reports whether two values hold the same element. Floats compare
// numerically, except that NaN equals NaN so a stuck NaN is not re-recorded
// on every poll.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case VarFloat, VarDouble:
		a, b := v.AsFloat(), o.AsFloat()
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	default:
		return v.bits == o.bits
	}
}

func (v Value) String() string {
	switch v.Type {
	case VarChar:
		return string(rune(byte(v.bits)))
	case VarBool:
		return strconv.FormatBool(v.bits != 0)
	case VarInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case VarBitField:
		return fmt.Sprintf("0x%08x", uint32(v.bits))
	case VarFloat:
		return strconv.FormatFloat(v.AsFloat(), 'G', -1, 32)
	case VarDouble:
		return strconv.FormatFloat(v.AsFloat(), 'G', -1, 64)
	default:
		return strconv.FormatUint(v.bits, 10)
	}
}
