package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// columnOrderKey stores the table's column order in the file metadata;
// parquet groups order their fields by name
const columnOrderKey = "fif.columns"

const rowBatch = 1024

// schemaFor maps column kinds to parquet leaves: text is a required
// string, floats are optional doubles, ints are required int64
func schemaFor(t *table.Table) (*parquet.Schema, error) {
	names := t.Columns()
	if len(names) == 0 {
		return nil, errors.New("parquet: table has no columns")
	}
	group := make(parquet.Group, len(names))
	for _, name := range names {
		c, _ := t.Column(name)
		switch c.Kind {
		case table.KindFloat:
			group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		case table.KindInt:
			group[name] = parquet.Int(64)
		default:
			group[name] = parquet.String()
		}
	}
	return parquet.NewSchema("table", group), nil
}

func encodeParquet(w io.Writer, t *table.Table) error {
	schema, err := schemaFor(t)
	if err != nil {
		return err
	}
	order, err := json.Marshal(t.Columns())
	if err != nil {
		return err
	}

	paths := schema.Columns()
	leaves := make([]*table.Column, len(paths))
	for i, path := range paths {
		leaves[i], _ = t.Column(path[0])
	}

	pw := parquet.NewWriter(w, schema, parquet.KeyValueMetadata(columnOrderKey, string(order)))
	batch := make([]parquet.Row, 0, rowBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.WriteRows(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for r := 0; r < t.Len(); r++ {
		row := make(parquet.Row, len(leaves))
		for i, c := range leaves {
			row[i] = leafValue(c, r, i)
		}
		batch = append(batch, row)
		if len(batch) == rowBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	return pw.Close()
}

func leafValue(c *table.Column, r, leaf int) parquet.Value {
	switch c.Kind {
	case table.KindFloat:
		f := c.Floats[r]
		if !f.Valid {
			return parquet.NullValue().Level(0, 0, leaf)
		}
		return parquet.DoubleValue(f.V).Level(0, 1, leaf)
	case table.KindInt:
		return parquet.Int64Value(c.Ints[r]).Level(0, 0, leaf)
	default:
		return parquet.ByteArrayValue([]byte(c.Strings[r])).Level(0, 0, leaf)
	}
}

func decodeParquet(f *os.File) (*table.Table, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := pf.Schema()
	paths := schema.Columns()
	cols := make([]*table.Column, len(paths))
	kinds := make([]parquet.Kind, len(paths))
	for i, path := range paths {
		leaf, _ := schema.Lookup(path...)
		col := &table.Column{Name: path[0]}
		kinds[i] = leaf.Node.Type().Kind()
		switch kinds[i] {
		case parquet.Double, parquet.Float, parquet.Int32:
			col.Kind = table.KindFloat
			col.Floats = make([]table.Float, 0, pf.NumRows())
		case parquet.Int64:
			if leaf.Node.Optional() {
				col.Kind = table.KindFloat
				col.Floats = make([]table.Float, 0, pf.NumRows())
			} else {
				col.Kind = table.KindInt
				col.Ints = make([]int64, 0, pf.NumRows())
			}
		case parquet.Boolean, parquet.ByteArray, parquet.FixedLenByteArray:
			col.Kind = table.KindString
			col.Strings = make([]string, 0, pf.NumRows())
		default:
			return nil, fmt.Errorf("parquet: column %s has unsupported type %s", col.Name, kinds[i])
		}
		cols[i] = col
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	buf := make([]parquet.Row, rowBatch)
	for {
		n, err := reader.ReadRows(buf)
		for _, row := range buf[:n] {
			for _, v := range row {
				appendValue(cols[v.Column()], kinds[v.Column()], v)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	byName := make(map[string]*table.Column, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	order := make([]string, 0, len(cols))
	if raw, ok := pf.Lookup(columnOrderKey); ok {
		_ = json.Unmarshal([]byte(raw), &order)
	}
	if len(order) != len(cols) {
		order = order[:0]
		for _, c := range cols {
			order = append(order, c.Name)
		}
	}

	t := table.New()
	for _, name := range order {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("parquet: column %s listed in metadata is missing", name)
		}
		if err := t.Add(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// appendValue converts v, stored as kind, into the column's representation
func appendValue(c *table.Column, kind parquet.Kind, v parquet.Value) {
	switch c.Kind {
	case table.KindFloat:
		if v.IsNull() {
			c.Floats = append(c.Floats, table.Null)
			return
		}
		var f float64
		switch kind {
		case parquet.Double:
			f = v.Double()
		case parquet.Float:
			f = float64(v.Float())
		case parquet.Int32:
			f = float64(v.Int32())
		default:
			f = float64(v.Int64())
		}
		c.Floats = append(c.Floats, table.Num(f))
	case table.KindInt:
		c.Ints = append(c.Ints, v.Int64())
	default:
		switch {
		case v.IsNull():
			c.Strings = append(c.Strings, "")
		case kind == parquet.Boolean:
			c.Strings = append(c.Strings, strconv.FormatBool(v.Boolean()))
		default:
			c.Strings = append(c.Strings, string(v.ByteArray()))
		}
	}
}
