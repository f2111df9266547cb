package registry

import (
	"fmt"
	"math"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Builtin returns a registry with the standard aggregation, row-operation
// and adjustment methods. Custom feature functions are registered by the
// feature package.
func Builtin() *Registry {
	r := New()

	// Aggregations. Values are coerced to numbers; nulls are skipped.
	r.MustRegister(Method{
		Name: "sum", Kind: Aggregation,
		Description: "Sum of values; all-null groups sum to 0",
		Reduce:      reduceSum,
	})
	r.MustRegister(Method{
		Name: "max", Kind: Aggregation,
		Description: "Maximum value; null when no value is defined",
		Reduce: func(col *table.Column, rows []int) table.Float {
			return reduceExtreme(col, rows, func(a, b float64) bool { return a > b })
		},
	})
	r.MustRegister(Method{
		Name: "min", Kind: Aggregation,
		Description: "Minimum value; null when no value is defined",
		Reduce: func(col *table.Column, rows []int) table.Float {
			return reduceExtreme(col, rows, func(a, b float64) bool { return a < b })
		},
	})
	r.MustRegister(Method{
		Name: "mean", Kind: Aggregation,
		Description: "Mean of defined values; null when none",
		Reduce:      reduceMean,
	})
	r.MustRegister(Method{
		Name: "nunique", Kind: Aggregation,
		Description: "Number of distinct non-empty raw values",
		Reduce:      reduceNUnique,
	})
	r.MustRegister(Method{
		Name: "count", Kind: Aggregation,
		Description: "Number of non-empty raw values",
		Reduce:      reduceCount,
	})

	// Row operations produce a 0/1 indicator that is summed per group
	r.MustRegister(Method{
		Name: "isin", Kind: RowOperation,
		Description: "1 when the row value is a member of the given list",
		RowOp:       isinOp,
	})
	r.MustRegister(Method{
		Name: "eq", Kind: RowOperation,
		Description: "1 when the row value equals the given literal",
		RowOp:       eqOp,
	})

	r.MustRegister(Method{
		Name: "clip", Kind: Adjustment,
		Description: "Clip to [0, 1]",
		Adjust:      clip01,
	})
	r.MustRegister(Method{
		Name: "log", Kind: Adjustment,
		Description: "Natural log of one plus the value",
		Adjust: func(v table.Float) table.Float {
			if !v.Valid {
				return v
			}
			return table.Num(math.Log1p(v.V))
		},
	})
	r.MustRegister(Method{
		Name: "coalesce", Kind: Adjustment,
		Description: "Replace null with 0",
		Adjust: func(v table.Float) table.Float {
			if !v.Valid {
				return table.Num(0)
			}
			return v
		},
	})
	r.MustRegister(Method{
		Name: "negate", Kind: Adjustment,
		Description: "Multiply by -1",
		Adjust: func(v table.Float) table.Float {
			if !v.Valid {
				return v
			}
			return table.Num(-v.V)
		},
	})

	return r
}

func reduceSum(col *table.Column, rows []int) table.Float {
	total := 0.0
	for _, i := range rows {
		if v := col.FloatAt(i); v.Valid {
			total += v.V
		}
	}
	return table.Num(total)
}

func reduceExtreme(col *table.Column, rows []int, better func(a, b float64) bool) table.Float {
	out := table.Null
	for _, i := range rows {
		v := col.FloatAt(i)
		if !v.Valid {
			continue
		}
		if !out.Valid || better(v.V, out.V) {
			out = v
		}
	}
	return out
}

func reduceMean(col *table.Column, rows []int) table.Float {
	total, n := 0.0, 0
	for _, i := range rows {
		if v := col.FloatAt(i); v.Valid {
			total += v.V
			n++
		}
	}
	if n == 0 {
		return table.Null
	}
	return table.Num(total / float64(n))
}

func reduceNUnique(col *table.Column, rows []int) table.Float {
	seen := make(map[string]struct{})
	for _, i := range rows {
		if s := col.StringAt(i); s != "" {
			seen[s] = struct{}{}
		}
	}
	return table.Num(float64(len(seen)))
}

func reduceCount(col *table.Column, rows []int) table.Float {
	n := 0
	for _, i := range rows {
		if col.StringAt(i) != "" {
			n++
		}
	}
	return table.Num(float64(n))
}

func isinOp(aux []interface{}) (RowFunc, error) {
	values, err := ArgList(aux, 0)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(cell string) table.Float {
		if _, ok := set[cell]; ok {
			return table.Num(1)
		}
		return table.Num(0)
	}, nil
}

func eqOp(aux []interface{}) (RowFunc, error) {
	if len(aux) != 1 {
		return nil, fmt.Errorf("expects exactly one literal, got %d", len(aux))
	}
	want := Literal(aux[0])
	return func(cell string) table.Float {
		if cell == want {
			return table.Num(1)
		}
		return table.Num(0)
	}, nil
}

func clip01(v table.Float) table.Float {
	if !v.Valid {
		return v
	}
	return table.Num(math.Min(1, math.Max(0, v.V)))
}
