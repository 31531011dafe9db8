// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

// Package ctv implements compile-time values: the closed set of concrete
// values constant evaluation can produce.
package ctv

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the tag of a Value.
type Kind int

const (
	IntKind Kind = iota
	UintKind
	FloatKind
	BoolKind
	StringKind
	ArrayKind
	TupleKind
	StructKind
)

var kindNames = [...]string{
	IntKind:    "int",
	UintKind:   "uint",
	FloatKind:  "float",
	BoolKind:   "bool",
	StringKind: "string",
	ArrayKind:  "array",
	TupleKind:  "tuple",
	StructKind: "struct",
}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a compile-time value.
type Value interface {
	Kind() Kind
	String() string
}

// Int is a signed integer of Bits width. V always holds the sign extended
// value.
type Int struct {
	V    int64
	Bits int
}

func (Int) Kind() Kind { return IntKind }

func (v Int) String() string { return strconv.FormatInt(v.V, 10) }

// MakeInt returns v wrapped to bits.
func MakeInt(v int64, bits int) Int {
	return Int{V: WrapInt(v, bits), Bits: normBits(bits)}
}

// Uint is an unsigned integer of Bits width.
type Uint struct {
	V    uint64
	Bits int
}

func (Uint) Kind() Kind { return UintKind }

func (v Uint) String() string { return strconv.FormatUint(v.V, 10) + "u" }

// MakeUint returns v wrapped to bits.
func MakeUint(v uint64, bits int) Uint {
	return Uint{V: WrapUint(v, bits), Bits: normBits(bits)}
}

// Float is a 32 or 64 bit float. A 32 bit value is always representable.
type Float struct {
	V    float64
	Bits int
}

func (Float) Kind() Kind { return FloatKind }

func (v Float) String() string {
	var d decimal.Decimal
	if v.Bits == 32 {
		d = decimal.NewFromFloat32(float32(v.V))
	} else {
		d = decimal.NewFromFloat(v.V)
	}
	return d.String() + "f"
}

// MakeFloat returns v rounded to bits.
func MakeFloat(v float64, bits int) Float {
	if bits == 32 {
		return Float{V: float64(float32(v)), Bits: 32}
	}
	return Float{V: v, Bits: 64}
}

// Bool is a boolean.
type Bool bool

func (Bool) Kind() Kind { return BoolKind }

func (v Bool) String() string { return strconv.FormatBool(bool(v)) }

// String is an immutable byte string.
type String string

func (String) Kind() Kind { return StringKind }

func (v String) String() string { return strconv.Quote(string(v)) }

// Array is a fixed-length sequence.
type Array []Value

func (Array) Kind() Kind { return ArrayKind }

func (v Array) String() string { return "[" + join(v) + "]" }

// Tuple is an ordered list of values addressed as __0, __1...
type Tuple []Value

func (Tuple) Kind() Kind { return TupleKind }

func (v Tuple) String() string { return "(" + join(v) + ")" }

// Unit is the value of statements and blocks without a result.
var Unit = Tuple{}

// IsUnit reports whether v is the empty tuple.
func IsUnit(v Value) bool {
	t, ok := v.(Tuple)
	return ok && len(t) == 0
}

// Field is a named aggregate member.
type Field struct {
	Name  string
	Value Value
}

// Struct is a named aggregate with fields in declaration order.
type Struct struct {
	Name   string
	Fields []Field
}

func (*Struct) Kind() Kind { return StructKind }

func (v *Struct) String() string {
	s := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		s[i] = f.Name + ": " + str(f.Value)
	}
	return v.Name + "{" + strings.Join(s, ", ") + "}"
}

// Field returns the index of the field name or -1.
func (v *Struct) Field(name string) int {
	for i, f := range v.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// TupleField parses a tuple member name "__N".
func TupleField(name string) (int, bool) {
	if !strings.HasPrefix(name, "__") {
		return 0, false
	}
	i, err := strconv.Atoi(name[2:])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// TupleFieldName returns "__i".
func TupleFieldName(i int) string {
	return "__" + strconv.Itoa(i)
}

func normBits(bits int) int {
	if bits <= 0 || bits > 64 {
		return 64
	}
	return bits
}

// WrapInt truncates v to bits and sign extends the result.
func WrapInt(v int64, bits int) int64 {
	bits = normBits(bits)
	if bits == 64 {
		return v
	}
	shift := uint(64 - bits)
	return v << shift >> shift
}

// WrapUint truncates v to bits.
func WrapUint(v uint64, bits int) uint64 {
	bits = normBits(bits)
	if bits == 64 {
		return v
	}
	return v & (1<<uint(bits) - 1)
}

// Truthy converts a scalar to a condition value. Composite values are not
// conditions.
func Truthy(v Value) (bool, bool) {
	switch v := v.(type) {
	case Bool:
		return bool(v), true
	case Int:
		return v.V != 0, true
	case Uint:
		return v.V != 0, true
	case Float:
		return v.V != 0, true
	}
	return false, false
}

// IsScalar reports whether v is not a composite.
func IsScalar(v Value) bool {
	switch v.(type) {
	case Int, Uint, Float, Bool, String:
		return true
	}
	return false
}

func str(v Value) string {
	if v == nil {
		return "<uninitialized>"
	}
	return v.String()
}

func join(l []Value) string {
	s := make([]string, len(l))
	for i, v := range l {
		s[i] = str(v)
	}
	return strings.Join(s, ", ")
}
