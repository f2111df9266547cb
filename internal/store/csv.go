package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// CSVOptions controls DecodeCSV
type CSVOptions struct {
	// Comma is the field separator; zero means ','
	Comma rune

	// OnBadLine is called for every record with more fields than the
	// header. The record is skipped. When nil, bad lines fail the decode.
	// Short records are padded with empty cells.
	OnBadLine func(line int, fields int)
}

// DecodeCSV reads a header row followed by records. Every column is kept as
// text; numeric coercion happens where a value is used.
func DecodeCSV(r io.Reader, opts CSVOptions) (*table.Table, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	cols := make([][]string, len(names))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(rec) > len(names) {
			line, _ := cr.FieldPos(0)
			if opts.OnBadLine == nil {
				return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(names), len(rec))
			}
			opts.OnBadLine(line, len(rec))
			continue
		}
		for i := range names {
			v := ""
			if i < len(rec) {
				v = rec[i]
			}
			cols[i] = append(cols[i], v)
		}
	}

	t := table.New()
	for i, name := range names {
		vals := cols[i]
		if vals == nil {
			vals = []string{}
		}
		if err := t.AddStrings(name, vals); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// EncodeCSV writes the header and every row. Null numbers are empty cells.
func EncodeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	names := t.Columns()
	if err := cw.Write(names); err != nil {
		return err
	}

	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i], _ = t.Column(n)
	}
	rec := make([]string, len(cols))
	for r := 0; r < t.Len(); r++ {
		for i, c := range cols {
			rec[i] = c.StringAt(r)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
