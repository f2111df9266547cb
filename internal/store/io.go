// Package store persists tables: single files, hive-style partitions
// (<dir>/<dataset>/period=<p>/data.parquet), spreadsheet reports and the
// PostgreSQL ranking sink.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

const (
	extParquet = ".parquet"
	extCSV     = ".csv"
)

// PartitionFile is the file name of one written partition
const PartitionFile = "data" + extParquet

// PartitionDir returns <root>/<dataset>/period=<period>
func PartitionDir(root, dataset, period string) string {
	return filepath.Join(root, dataset, "period="+period)
}

// ReadTable reads one .parquet or .csv file
func ReadTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &contracts.NotFoundError{Resource: "input file", Path: path}
		}
		return nil, err
	}
	defer f.Close()

	var t *table.Table
	switch strings.ToLower(filepath.Ext(path)) {
	case extParquet:
		t, err = decodeParquet(f)
	default:
		t, err = DecodeCSV(f, CSVOptions{})
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// WriteTable writes t to path and returns the path actually written.
// A .parquet path falls back to CSV (<path without ext>.csv) when the
// parquet encoder fails; the partial file is removed. Parent directories
// are created.
func WriteTable(path string, t *table.Table, log *logger.Logger) (string, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", path, err)
	}

	if strings.ToLower(filepath.Ext(path)) != extParquet {
		return path, writeCSVFile(path, t)
	}

	err := writeParquetFile(path, t)
	if err == nil {
		return path, nil
	}
	_ = os.Remove(path)

	fallback := strings.TrimSuffix(path, filepath.Ext(path)) + extCSV
	log.WithError(err).WithFields(map[string]interface{}{
		"path":     path,
		"fallback": fallback,
	}).Warn("Parquet encoding failed, writing CSV")

	if err := writeCSVFile(fallback, t); err != nil {
		return "", err
	}
	return fallback, nil
}

func writeParquetFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeParquet(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSVFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := EncodeCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadPartitioned concatenates every .parquet and .csv file under
// <root>/<dataset>, in sorted path order
func ReadPartitioned(root, dataset string) (*table.Table, error) {
	dir := filepath.Join(root, dataset)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &contracts.NotFoundError{Resource: "dataset directory", Path: dir}
	}

	files, err := partitionFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &contracts.NotFoundError{Resource: "partition files", Path: dir}
	}

	parts := make([]*table.Table, 0, len(files))
	for _, path := range files {
		t, err := ReadTable(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
	}
	return table.Concat(parts...), nil
}

func partitionFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case extParquet, extCSV:
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Datasets lists the dataset directories under root
func Datasets(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &contracts.NotFoundError{Resource: "input directory", Path: root}
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
