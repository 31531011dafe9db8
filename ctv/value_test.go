package ctv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	require.Equal(t, int64(-128), WrapInt(128, 8))
	require.Equal(t, int64(127), WrapInt(127, 8))
	require.Equal(t, int64(-1), WrapInt(0xffff, 16))
	require.Equal(t, int64(5), WrapInt(5, 0))
	require.Equal(t, uint64(0), WrapUint(256, 8))
	require.Equal(t, uint64(255), WrapUint(1<<16-1, 8))
	require.Equal(t, Int{V: -2147483648, Bits: 32}, MakeInt(2147483648, 32))
	require.Equal(t, Uint{V: 1, Bits: 8}, MakeUint(257, 8))
	require.Equal(t, float64(float32(0.1)), MakeFloat(0.1, 32).V)
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{MakeInt(-3, 32), "-3"},
		{MakeUint(7, 8), "7u"},
		{MakeFloat(0.1, 64), "0.1f"},
		{MakeFloat(0.1, 32), "0.1f"},
		{Bool(true), "true"},
		{String("a\"b"), `"a\"b"`},
		{Array{MakeInt(1, 32), MakeInt(2, 32)}, "[1, 2]"},
		{Tuple{Bool(false), String("x")}, `(false, "x")`},
		{&Struct{Name: "P", Fields: []Field{{"x", MakeInt(1, 8)}, {"y", nil}}}, "P{x: 1, y: <uninitialized>}"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.v.String())
	}
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(MakeInt(5, 32), MakeInt(5, 32)))
	require.False(t, Equal(MakeInt(5, 32), MakeInt(5, 64)))
	require.False(t, Equal(MakeInt(5, 32), MakeUint(5, 32)))
	require.True(t, Equal(Array{String("a")}, Array{String("a")}))
	require.False(t, Equal(Array{String("a")}, Tuple{String("a")}))
	p := &Struct{Name: "P", Fields: []Field{{"x", MakeInt(1, 8)}}}
	require.True(t, Equal(p, Copy(p)))
	require.False(t, Equal(p, &Struct{Name: "Q", Fields: p.Fields}))
	require.True(t, Equal(nil, nil))
}

func TestCopyIsDeep(t *testing.T) {
	a := Array{Array{MakeInt(1, 32)}}
	b := Copy(a).(Array)
	b[0].(Array)[0] = MakeInt(9, 32)
	require.Equal(t, "[[1]]", a.String())
	require.Equal(t, "[[9]]", b.String())
}

func TestIsComplete(t *testing.T) {
	require.True(t, IsComplete(Array{MakeInt(1, 32)}))
	require.False(t, IsComplete(Array{MakeInt(1, 32), nil}))
	require.False(t, IsComplete(&Struct{Name: "P", Fields: []Field{{"x", nil}}}))
	require.False(t, IsComplete(nil))
	require.True(t, IsComplete(Unit))
}

func TestTruthy(t *testing.T) {
	for _, v := range []Value{Bool(true), MakeInt(-1, 8), MakeUint(3, 8), MakeFloat(0.5, 64)} {
		b, ok := Truthy(v)
		require.True(t, ok)
		require.True(t, b)
	}
	b, ok := Truthy(MakeInt(0, 32))
	require.True(t, ok)
	require.False(t, b)
	_, ok = Truthy(String("x"))
	require.False(t, ok)
}

func TestTupleField(t *testing.T) {
	i, ok := TupleField("__2")
	require.True(t, ok)
	require.Equal(t, 2, i)
	_, ok = TupleField("x")
	require.False(t, ok)
	require.Equal(t, "__3", TupleFieldName(3))
}
