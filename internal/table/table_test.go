package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Float
	}{
		{"plain", "1000", Num(1000)},
		{"decimal", " 0.25 ", Num(0.25)},
		{"empty", "", Null},
		{"garbage", "abc", Null},
		{"nan", "NaN", Null},
		{"inf", "+Inf", Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFloat(tt.in))
		})
	}
}

func TestNumNormalizesNonFinite(t *testing.T) {
	assert.False(t, Num(math.NaN()).Valid)
	assert.False(t, Num(math.Inf(-1)).Valid)
	assert.True(t, Num(0).Valid)
	assert.Equal(t, "", Null.String())
	assert.Equal(t, 7.0, Null.Or(7))
}

func TestAddLengthMismatch(t *testing.T) {
	tb := New()
	require.NoError(t, tb.AddStrings("a", []string{"1", "2"}))
	err := tb.AddFloats("b", Floats(1))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestAddReplacesInPlace(t *testing.T) {
	tb := New()
	require.NoError(t, tb.AddStrings("a", []string{"x"}))
	require.NoError(t, tb.AddStrings("b", []string{"y"}))
	require.NoError(t, tb.AddFloats("a", Floats(3)))

	assert.Equal(t, []string{"a", "b"}, tb.Columns())
	vals, ok := tb.Numeric("a")
	require.True(t, ok)
	assert.Equal(t, 3.0, vals[0].V)
}

func TestCloneIsolation(t *testing.T) {
	tb := New()
	require.NoError(t, tb.AddStrings("a", []string{"x"}))

	cp := tb.Clone()
	require.NoError(t, cp.AddStrings("b", []string{"y"}))

	assert.False(t, tb.Has("b"))
	assert.True(t, cp.Has("b"))
}

func TestGroupBy(t *testing.T) {
	tb := New()
	require.NoError(t, tb.AddStrings("fund", []string{"F2", "F1", "", "F2", "F1"}))
	require.NoError(t, tb.AddFloats("v", Floats(1, 2, 3, 4, 5)))

	groups, err := tb.GroupBy("fund")
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, []string{"F1"}, groups[0].Key)
	assert.Equal(t, []int{1, 4}, groups[0].Rows)
	assert.Equal(t, []string{"F2"}, groups[1].Key)
	assert.Equal(t, []int{0, 3}, groups[1].Rows)

	_, err = tb.GroupBy("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestKeyTable(t *testing.T) {
	tb := New()
	require.NoError(t, tb.AddStrings("fund", []string{"F2", "F1", "F2"}))
	require.NoError(t, tb.AddStrings("period", []string{"202401", "202401", "202401"}))

	groups, err := tb.GroupBy("fund", "period")
	require.NoError(t, err)

	keys := tb.KeyTable([]string{"fund", "period"}, groups)
	funds, _ := keys.Strings("fund")
	assert.Equal(t, []string{"F1", "F2"}, funds)
}

func TestLeftJoin(t *testing.T) {
	left := New()
	require.NoError(t, left.AddStrings("fund", []string{"F1", "F2", "F3"}))
	require.NoError(t, left.AddFloats("a", Floats(1, 2, 3)))

	right := New()
	require.NoError(t, right.AddStrings("fund", []string{"F2", "F1"}))
	require.NoError(t, right.AddFloats("a", Floats(20, 10)))
	require.NoError(t, right.AddInts("n", []int64{2, 1}))

	out, err := LeftJoin(left, right, "fund")
	require.NoError(t, err)

	assert.Equal(t, []string{"fund", "a_x", "a_y", "n"}, out.Columns())
	assert.Equal(t, 3, out.Len())

	ay, _ := out.Numeric("a_y")
	assert.Equal(t, 10.0, ay[0].V)
	assert.Equal(t, 20.0, ay[1].V)
	assert.False(t, ay[2].Valid)

	// int column with a missing row is widened to nullable float
	n, _ := out.Column("n")
	assert.Equal(t, KindFloat, n.Kind)
	assert.False(t, n.Floats[2].Valid)
}

func TestOuterJoin(t *testing.T) {
	left := New()
	require.NoError(t, left.AddStrings("fund", []string{"F3", "F1"}))
	require.NoError(t, left.AddFloats("a", Floats(3, 1)))

	right := New()
	require.NoError(t, right.AddStrings("fund", []string{"F2", "F1"}))
	require.NoError(t, right.AddFloats("b", Floats(20, 10)))

	out, err := OuterJoin(left, right, "fund")
	require.NoError(t, err)

	funds, _ := out.Strings("fund")
	assert.Equal(t, []string{"F1", "F2", "F3"}, funds)

	a, _ := out.Numeric("a")
	b, _ := out.Numeric("b")
	assert.Equal(t, []Float{Num(1), Null, Num(3)}, a)
	assert.Equal(t, []Float{Num(10), Num(20), Null}, b)
}

func TestConcat(t *testing.T) {
	p1 := New()
	require.NoError(t, p1.AddStrings("x", []string{"a"}))
	require.NoError(t, p1.AddStrings("period", []string{"202401"}))

	p2 := New()
	require.NoError(t, p2.AddStrings("x", []string{"b"}))
	require.NoError(t, p2.AddStrings("extra", []string{"e"}))

	out := Concat(p1, p2)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"x", "period", "extra"}, out.Columns())

	period, _ := out.Strings("period")
	assert.Equal(t, []string{"202401", ""}, period)
}

func TestFilterAndSelect(t *testing.T) {
	tb := New()
	require.NoError(t, tb.AddStrings("k", []string{"a", "b", "c"}))
	require.NoError(t, tb.AddInts("n", []int64{1, 2, 3}))

	even := tb.Filter(func(i int) bool { return i%2 == 0 })
	assert.Equal(t, 2, even.Len())

	sel, err := tb.Select("n")
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, sel.Columns())

	_, err = tb.Select("zzz")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}
