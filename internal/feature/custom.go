package feature

import (
	"fmt"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Custom method names
const (
	CreditShareMethod       = "credito_share_feature_fn"
	RelatedPartyShareMethod = "related_party_share_feature_fn"
	IssuerHHIMethod         = "hhi_feature_fn"
)

// CustomColumns lists the input columns a custom method reads
func CustomColumns(method string) []string {
	switch method {
	case CreditShareMethod:
		return []string{contracts.ColMarketValue, contracts.ColApplicationType}
	case RelatedPartyShareMethod:
		return []string{contracts.ColMarketValue, contracts.ColRelatedIssuer}
	case IssuerHHIMethod:
		return []string{contracts.ColMarketValue, contracts.ColIssuerID}
	default:
		return nil
	}
}

// NewRegistry returns the built-in registry plus the CDA custom features
func NewRegistry() *registry.Registry {
	reg := registry.Builtin()
	RegisterCustom(reg)
	return reg
}

// RegisterCustom adds the CDA custom feature functions to reg
func RegisterCustom(reg *registry.Registry) {
	reg.MustRegister(registry.Method{
		Name:        CreditShareMethod,
		Kind:        registry.Custom,
		Description: "Weighted share of credit-linked assets in the portfolio",
		Custom: func(args []interface{}) (registry.CustomFunc, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("expects one argument (credit-linked asset types), got %d", len(args))
			}
			types, err := registry.ArgList(args, 0)
			if err != nil {
				return nil, err
			}
			return CreditShare(types), nil
		},
	})
	reg.MustRegister(registry.Method{
		Name:        RelatedPartyShareMethod,
		Kind:        registry.Custom,
		Description: "Weighted share of related-party issuers",
		Custom: func(args []interface{}) (registry.CustomFunc, error) {
			if err := registry.NoArgs(args); err != nil {
				return nil, err
			}
			return RelatedPartyShare, nil
		},
	})
	reg.MustRegister(registry.Method{
		Name:        IssuerHHIMethod,
		Kind:        registry.Custom,
		Description: "Herfindahl-Hirschman index over issuer exposures",
		Custom: func(args []interface{}) (registry.CustomFunc, error) {
			if err := registry.NoArgs(args); err != nil {
				return nil, err
			}
			return IssuerHHI, nil
		},
	})
}

// CreditShare returns Σ(value·is_credit) / Σ(value) per group, where a row is
// credit-linked when its application type is one of types
func CreditShare(types []string) registry.CustomFunc {
	set := make(map[string]struct{}, len(types))
	for _, ty := range types {
		set[ty] = struct{}{}
	}
	return func(t *table.Table, keys []string, output string) (*table.Table, error) {
		kind := textColumn(t, contracts.ColApplicationType)
		return weightedShare(t, keys, output, func(i int) bool {
			_, ok := set[kind[i]]
			return ok
		})
	}
}

// RelatedPartyShare returns the value share of rows issued by a related party
func RelatedPartyShare(t *table.Table, keys []string, output string) (*table.Table, error) {
	flag := textColumn(t, contracts.ColRelatedIssuer)
	return weightedShare(t, keys, output, func(i int) bool {
		return flag[i] == contracts.RelatedIssuerFlag
	})
}

// weightedShare sums market value per group, with and without the indicator.
// Null values are skipped on both sides; a zero denominator yields null.
func weightedShare(t *table.Table, keys []string, output string, indicator func(i int) bool) (*table.Table, error) {
	groups, err := t.GroupBy(keys...)
	if err != nil {
		return nil, err
	}
	values := numericColumn(t, contracts.ColMarketValue)

	shares := make([]table.Float, len(groups))
	for gi, g := range groups {
		num, den := 0.0, 0.0
		for _, i := range g.Rows {
			v := values[i]
			if !v.Valid {
				continue
			}
			den += v.V
			if indicator(i) {
				num += v.V
			}
		}
		if den == 0 {
			shares[gi] = table.Null
			continue
		}
		shares[gi] = table.Num(num / den)
	}

	out := t.KeyTable(keys, groups)
	if err := out.AddFloats(output, shares); err != nil {
		return nil, err
	}
	return out, nil
}

// IssuerHHI sums market value per (group, issuer), turns the sums into
// weights within the group and returns Σ weight² per group. Rows without an
// issuer are ignored; a group whose total is zero yields null.
func IssuerHHI(t *table.Table, keys []string, output string) (*table.Table, error) {
	if !t.Has(contracts.ColIssuerID) {
		t = t.Clone()
		if err := t.AddStrings(contracts.ColIssuerID, make([]string, t.Len())); err != nil {
			return nil, err
		}
	}

	subKeys := append(append([]string{}, keys...), contracts.ColIssuerID)
	subGroups, err := t.GroupBy(subKeys...)
	if err != nil {
		return nil, err
	}
	values := numericColumn(t, contracts.ColMarketValue)

	// sub-groups are sorted by full key, so each outer group is a contiguous run
	var (
		outer []table.Group
		pos   [][]float64
	)
	for _, sg := range subGroups {
		sum := 0.0
		for _, i := range sg.Rows {
			if v := values[i]; v.Valid {
				sum += v.V
			}
		}
		prefix := sg.Key[:len(keys)]
		if n := len(outer); n == 0 || !sameKey(outer[n-1].Key, prefix) {
			outer = append(outer, table.Group{Key: prefix, Rows: []int{sg.Rows[0]}})
			pos = append(pos, nil)
		}
		pos[len(pos)-1] = append(pos[len(pos)-1], sum)
	}

	hhi := make([]table.Float, len(outer))
	for gi := range outer {
		total := 0.0
		for _, p := range pos[gi] {
			total += p
		}
		if total == 0 {
			hhi[gi] = table.Null
			continue
		}
		acc := 0.0
		for _, p := range pos[gi] {
			w := p / total
			acc += w * w
		}
		hhi[gi] = table.Num(acc)
	}

	out := t.KeyTable(keys, outer)
	if err := out.AddFloats(output, hhi); err != nil {
		return nil, err
	}
	return out, nil
}

func sameKey(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// numericColumn returns the column as numbers, or all nulls when absent
func numericColumn(t *table.Table, name string) []table.Float {
	if vals, ok := t.Numeric(name); ok {
		return vals
	}
	return make([]table.Float, t.Len())
}

// textColumn returns the column as text, or all empty when absent
func textColumn(t *table.Table, name string) []string {
	if vals, ok := t.Strings(name); ok {
		return vals
	}
	return make([]string, t.Len())
}
