package table

import (
	"fmt"
	"sort"
	"strings"
)

const keySep = "\x1f"

// Group is one set of rows sharing a key tuple
type Group struct {
	Key  []string
	Rows []int
}

// GroupBy partitions rows by the key columns.
// Rows with an empty value in any key column are dropped and groups are
// returned sorted by key, matching the usual dataframe groupby defaults.
func (t *Table) GroupBy(keys ...string) ([]Group, error) {
	cols, err := t.keyColumns(keys)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []Group
	for i := 0; i < t.rows; i++ {
		key, ok := keyTuple(cols, i)
		if !ok {
			continue
		}
		k := strings.Join(key, keySep)
		g, seen := index[k]
		if !seen {
			g = len(groups)
			index[k] = g
			groups = append(groups, Group{Key: key})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return lessKey(groups[a].Key, groups[b].Key)
	})
	return groups, nil
}

// KeyTable builds a table with one row per group holding the key columns.
// Key column kinds follow the source table.
func (t *Table) KeyTable(keys []string, groups []Group) *Table {
	rows := make([]int, len(groups))
	for i, g := range groups {
		rows[i] = g.Rows[0]
	}
	out, _ := t.Select(keys...)
	return out.Take(rows)
}

func (t *Table) keyColumns(keys []string) ([]*Column, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no key columns given")
	}
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, ok := t.Column(k)
		if !ok {
			return nil, fmt.Errorf("%w: key %s", ErrColumnNotFound, k)
		}
		cols[i] = c
	}
	return cols, nil
}

// keyTuple returns the key values for row i, or false when any is empty
func keyTuple(cols []*Column, i int) ([]string, bool) {
	key := make([]string, len(cols))
	for j, c := range cols {
		v := c.StringAt(i)
		if v == "" {
			return nil, false
		}
		key[j] = v
	}
	return key, true
}

func lessKey(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
