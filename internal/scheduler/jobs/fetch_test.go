package jobs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/fetch"
)

// mapGetter serves fixed bodies by URL suffix
type mapGetter map[string][]byte

func (g mapGetter) GetBytes(ctx context.Context, url string) ([]byte, error) {
	for suffix, body := range g {
		if strings.HasSuffix(url, suffix) {
			return body, nil
		}
	}
	return nil, errors.New("404")
}

func archive(t *testing.T, csv string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("data.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetchJobRun(t *testing.T) {
	getter := mapGetter{"pl_202401.zip": archive(t, "CNPJ_FUNDO_CLASSE;VL_PATRIM_LIQ\nF1;10\n")}
	out := t.TempDir()

	job := NewFetchJob(fetch.NewClient(getter, nil), []fetch.Source{{
		Dataset:          "cda_fi_PL",
		BaseURL:          "https://x.test/",
		FilenameTemplate: "pl_{period}.zip",
		Periods:          []string{"202401", "202402"},
	}}, out, "", nil)
	job.now = func() time.Time { return time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC) }

	assert.Equal(t, "data_fetch", job.Name())
	assert.Equal(t, DefaultFetchSchedule, job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	_, err := os.Stat(filepath.Join(out, "cda_fi_PL", "period=202401", "data.parquet"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "cda_fi_PL", "period=202402"))
	assert.True(t, os.IsNotExist(err), "failed period writes nothing")
}

func TestFetchJobFailsWhenNothingFetched(t *testing.T) {
	job := NewFetchJob(fetch.NewClient(mapGetter{}, nil), []fetch.Source{{
		Dataset:          "cda_fi_PL",
		BaseURL:          "https://x.test/",
		FilenameTemplate: "pl_{period}.zip",
		Periods:          []string{"202401"},
	}}, t.TempDir(), "@daily", nil)

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dataset fetched")
	assert.Contains(t, err.Error(), "202401")
	assert.Equal(t, "@daily", job.Schedule())
}
