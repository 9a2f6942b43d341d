package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func predicates(v Value) []bool {
	return []bool{v.IsNumber(), v.IsUndefined(), v.IsNull(), v.IsBool(), v.IsRef()}
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func TestExactlyOnePredicate(t *testing.T) {
	values := []Value{
		Number(0),
		Number(math.Copysign(0, -1)),
		Number(1.5),
		Number(-1e300),
		Number(math.Inf(1)),
		Number(math.Inf(-1)),
		Number(math.NaN()),
		Number(math.Float64frombits(0x7FFC000000000001)),
		Number(math.Float64frombits(0xFFFC000000000000)),
		Number(math.SmallestNonzeroFloat64),
		Undefined(),
		Null(),
		Bool(true),
		Bool(false),
		FromRef(0),
		FromRef(12345),
		FromRef(NilRef),
	}
	for _, v := range values {
		require.Equal(t, 1, countTrue(predicates(v)), "value %#x", v.Bits())
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 0.1, 42, 1e21, -1e-7, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1)} {
		v := Number(f)
		require.True(t, v.IsNumber())
		require.Equal(t, f, v.AsNumber())
	}
	negZero := Number(math.Copysign(0, -1))
	require.True(t, math.Signbit(negZero.AsNumber()))
}

func TestNaNIsCanonical(t *testing.T) {
	a := Number(math.NaN())
	b := Number(math.Float64frombits(0x7FFC00000000BEEF))
	c := Number(math.Float64frombits(0xFFF8000000000001))
	require.Equal(t, uint64(0x7FF8000000000000), a.Bits())
	require.Equal(t, a, b)
	require.Equal(t, a, c)
	require.True(t, a.IsNumber())
	require.True(t, math.IsNaN(a.AsNumber()))
}

func TestSingletons(t *testing.T) {
	require.True(t, Undefined().IsUndefined())
	require.True(t, Undefined().IsNullish())
	require.True(t, Null().IsNull())
	require.True(t, Null().IsNullish())
	require.False(t, Bool(false).IsNullish())
	require.False(t, Number(0).IsNullish())
	require.True(t, Bool(true).AsBool())
	require.False(t, Bool(false).AsBool())
	require.True(t, Bool(false).IsBool())
	require.NotEqual(t, Undefined(), Null())
	require.NotEqual(t, Bool(false), Null())
}

func TestRefs(t *testing.T) {
	v := FromRef(77)
	require.True(t, v.IsRef())
	require.Equal(t, Ref(77), v.AsRef())
	require.Equal(t, NilRef, Number(77).AsRef())
	require.Equal(t, NilRef, FromRef(NilRef).AsRef())
	require.True(t, math.IsNaN(v.AsNumber()))
	require.Equal(t, FromRef(3), FromRef(3))
	require.NotEqual(t, FromRef(3), FromRef(4))
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{Number(0), false},
		{Number(math.Copysign(0, -1)), false},
		{Number(math.NaN()), false},
		{Number(1), true},
		{Number(-0.5), true},
		{Undefined(), false},
		{Null(), false},
		{Bool(false), false},
		{Bool(true), true},
		{FromRef(0), true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.v.Truthy(), tt.v.String())
	}
}

func TestString(t *testing.T) {
	require.Equal(t, "undefined", Undefined().String())
	require.Equal(t, "null", Null().String())
	require.Equal(t, "true", Bool(true).String())
	require.Equal(t, "42", Number(42).String())
	require.Equal(t, "ref(9)", FromRef(9).String())
	require.Equal(t, "number", Number(1).TypeName())
	require.Equal(t, "object", Null().TypeName())
	require.Equal(t, "boolean", Bool(true).TypeName())
	require.Equal(t, "undefined", Undefined().TypeName())
}

func TestFormatNumber(t *testing.T) {
	// Computed at run time; the constant expression 0.1 + 0.2 folds to 0.3.
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-42, "-42"},
		{3.14, "3.14"},
		{tenth + fifth, "0.30000000000000004"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatNumber(tt.in))
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"42", 42},
		{"  -3.5\n", -3.5},
		{"1e3", 1000},
		{".5", 0.5},
		{"0x1F", 31},
		{"0b101", 5},
		{"0o17", 15},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"1e400", math.Inf(1)},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseNumber(tt.in), tt.in)
	}
	for _, bad := range []string{"abc", "1_000", "inf", "NaN", "0x", "0xZZ", "1.2.3", "0x1p4", "12px"} {
		require.True(t, math.IsNaN(ParseNumber(bad)), bad)
	}
}

func TestToInt32(t *testing.T) {
	require.Equal(t, int32(5), ToInt32(5.9))
	require.Equal(t, int32(-5), ToInt32(-5.9))
	require.Equal(t, int32(-1), ToInt32(4294967295))
	require.Equal(t, int32(math.MinInt32), ToInt32(2147483648))
	require.Equal(t, int32(0), ToInt32(math.NaN()))
	require.Equal(t, int32(0), ToInt32(math.Inf(1)))
	require.Equal(t, uint32(4294967295), ToUint32(-1))
	require.Equal(t, uint32(1), ToUint32(4294967297))
}
