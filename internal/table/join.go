package table

import (
	"sort"
	"strings"
)

// LeftJoin keeps every row of left and attaches matching right columns.
// Unmatched rows get null/empty cells. Non-key name clashes are suffixed _x/_y.
func LeftJoin(left, right *Table, keys ...string) (*Table, error) {
	return join(left, right, keys, false)
}

// OuterJoin keeps rows from both sides, sorted by key.
// Rows with an empty key never match but are kept.
func OuterJoin(left, right *Table, keys ...string) (*Table, error) {
	return join(left, right, keys, true)
}

type pair struct {
	l, r int
	key  []string
}

func join(left, right *Table, keys []string, outer bool) (*Table, error) {
	lk, err := left.keyColumns(keys)
	if err != nil {
		return nil, err
	}
	rk, err := right.keyColumns(keys)
	if err != nil {
		return nil, err
	}

	rightIndex := make(map[string][]int)
	for j := 0; j < right.rows; j++ {
		if key, ok := keyTuple(rk, j); ok {
			k := strings.Join(key, keySep)
			rightIndex[k] = append(rightIndex[k], j)
		}
	}

	matched := make([]bool, right.rows)
	var pairs []pair
	for i := 0; i < left.rows; i++ {
		key, ok := keyTuple(lk, i)
		if !ok {
			pairs = append(pairs, pair{l: i, r: -1, key: rawKey(lk, i)})
			continue
		}
		hits := rightIndex[strings.Join(key, keySep)]
		if len(hits) == 0 {
			pairs = append(pairs, pair{l: i, r: -1, key: key})
			continue
		}
		for _, j := range hits {
			matched[j] = true
			pairs = append(pairs, pair{l: i, r: j, key: key})
		}
	}

	if outer {
		for j := 0; j < right.rows; j++ {
			if !matched[j] {
				pairs = append(pairs, pair{l: -1, r: j, key: rawKey(rk, j)})
			}
		}
		sort.SliceStable(pairs, func(a, b int) bool {
			return lessKey(pairs[a].key, pairs[b].key)
		})
	}

	li := make([]int, len(pairs))
	ri := make([]int, len(pairs))
	for n, p := range pairs {
		li[n], ri[n] = p.l, p.r
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	out := New()
	for idx := range keys {
		if err := out.Add(coalesceKey(lk[idx], rk[idx], li, ri)); err != nil {
			return nil, err
		}
	}
	for _, c := range left.cols {
		if isKey[c.Name] {
			continue
		}
		col := c.take(li)
		if right.Has(c.Name) {
			col = col.renamed(c.Name + "_x")
		}
		if err := out.Add(col); err != nil {
			return nil, err
		}
	}
	for _, c := range right.cols {
		if isKey[c.Name] {
			continue
		}
		col := c.take(ri)
		if left.Has(c.Name) {
			col = col.renamed(c.Name + "_y")
		}
		if err := out.Add(col); err != nil {
			return nil, err
		}
	}
	out.rows = len(pairs)
	return out, nil
}

func rawKey(cols []*Column, i int) []string {
	key := make([]string, len(cols))
	for j, c := range cols {
		key[j] = c.StringAt(i)
	}
	return key
}

// coalesceKey takes the key from the left row when present, else from the right row
func coalesceKey(lc, rc *Column, li, ri []int) *Column {
	if lc.Kind == rc.Kind && lc.Kind != KindString {
		out := &Column{Name: lc.Name, Kind: KindFloat, Floats: make([]Float, len(li))}
		for n := range li {
			if li[n] >= 0 {
				out.Floats[n] = lc.FloatAt(li[n])
			} else if ri[n] >= 0 {
				out.Floats[n] = rc.FloatAt(ri[n])
			}
		}
		if lc.Kind == KindInt {
			ints := make([]int64, len(out.Floats))
			for n, f := range out.Floats {
				ints[n] = int64(f.V)
			}
			return &Column{Name: lc.Name, Kind: KindInt, Ints: ints}
		}
		return out
	}

	out := &Column{Name: lc.Name, Kind: KindString, Strings: make([]string, len(li))}
	for n := range li {
		if li[n] >= 0 {
			out.Strings[n] = lc.StringAt(li[n])
		} else if ri[n] >= 0 {
			out.Strings[n] = rc.StringAt(ri[n])
		}
	}
	return out
}

// Concat stacks tables vertically. The result carries the union of columns
// in first-seen order; cells absent from a part are empty/null. Columns whose
// kind differs between parts are stored as text.
func Concat(parts ...*Table) *Table {
	var names []string
	kinds := make(map[string]Kind)
	for _, p := range parts {
		for _, c := range p.cols {
			k, seen := kinds[c.Name]
			if !seen {
				names = append(names, c.Name)
				kinds[c.Name] = c.Kind
			} else if k != c.Kind {
				kinds[c.Name] = KindString
			}
		}
	}

	total := 0
	for _, p := range parts {
		total += p.rows
	}

	out := New()
	for _, name := range names {
		col := &Column{Name: name, Kind: kinds[name]}
		if col.Kind == KindInt {
			// a part without the column would need a null int
			for _, p := range parts {
				if !p.Has(name) && p.rows > 0 {
					col.Kind = KindFloat
					break
				}
			}
		}
		for _, p := range parts {
			src, ok := p.Column(name)
			for i := 0; i < p.rows; i++ {
				switch col.Kind {
				case KindFloat:
					v := Null
					if ok {
						v = src.FloatAt(i)
					}
					col.Floats = append(col.Floats, v)
				case KindInt:
					col.Ints = append(col.Ints, src.Ints[i])
				default:
					v := ""
					if ok {
						v = src.StringAt(i)
					}
					col.Strings = append(col.Strings, v)
				}
			}
		}
		_ = out.Add(col)
	}
	out.rows = total
	return out
}
