package fetch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Separator is the CVM CSV field separator
const Separator = ';'

// ParseArchive reads one CSV member of a ZIP archive: member when given,
// otherwise the first .csv entry. Files are Latin-1, ';'-separated and kept
// as text. Every row gets a period column. onBadLine may be nil.
func ParseArchive(data []byte, member, period string, onBadLine func(line, fields int)) (*table.Table, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", fmt.Errorf("open archive: %w", err)
	}

	f := pickMember(zr.File, member)
	if f == nil {
		if member != "" {
			return nil, "", fmt.Errorf("member %s not found in archive", member)
		}
		return nil, "", fmt.Errorf("no CSV file found inside archive")
	}

	rc, err := f.Open()
	if err != nil {
		return nil, f.Name, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	if onBadLine == nil {
		onBadLine = func(int, int) {}
	}
	t, err := store.DecodeCSV(charmap.ISO8859_1.NewDecoder().Reader(rc), store.CSVOptions{
		Comma:     Separator,
		OnBadLine: onBadLine,
	})
	if err != nil {
		return nil, f.Name, fmt.Errorf("parse %s: %w", f.Name, err)
	}

	periods := make([]string, t.Len())
	for i := range periods {
		periods[i] = period
	}
	if err := t.AddStrings(contracts.ColPeriod, periods); err != nil {
		return nil, f.Name, err
	}
	return t, f.Name, nil
}

func pickMember(files []*zip.File, member string) *zip.File {
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Base(f.Name)
		if member != "" {
			if strings.EqualFold(name, member) {
				return f
			}
			continue
		}
		if strings.EqualFold(path.Ext(name), ".csv") {
			return f
		}
	}
	return nil
}
