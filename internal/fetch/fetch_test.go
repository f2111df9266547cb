package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/store"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/config"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/httputil"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
)

// zipOf builds an archive; CSV bodies are encoded as Latin-1
func zipOf(t *testing.T, files map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		latin, err := charmap.ISO8859_1.NewEncoder().String(files[name])
		require.NoError(t, err)
		_, err = w.Write([]byte(latin))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const blcCSV = "CNPJ_FUNDO_CLASSE;TP_APLIC;VL_MERC_POS_FINAL\n" +
	"F1;Debêntures;100\n" +
	"F1;Títulos Públicos;50;oops\n" +
	"F2;CRI;30\n"

func newTestClient() *Client {
	hc := httputil.New(config.Default(), logger.Nop()).DisableRetry().WithRateLimit(1000)
	return NewClient(hc, logger.Nop())
}

func archiveServer(t *testing.T, archives map[string][]byte, listing string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/dados/")
		if name == "" {
			fmt.Fprint(w, listing)
			return
		}
		body, ok := archives[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseArchive(t *testing.T) {
	data := zipOf(t, map[string]string{
		"readme.txt":         "ignore me",
		"cda_fi_BLC_1.csv":   "A;B\n1;2\n",
		"cda_fi_BLC_4_1.csv": blcCSV,
	}, "readme.txt", "cda_fi_BLC_1.csv", "cda_fi_BLC_4_1.csv")

	first, member, err := ParseArchive(data, "", "202401", nil)
	require.NoError(t, err)
	assert.Equal(t, "cda_fi_BLC_1.csv", member)
	assert.Equal(t, []string{"A", "B", contracts.ColPeriod}, first.Columns())

	var bad []int
	named, member, err := ParseArchive(data, "CDA_FI_BLC_4_1.csv", "202401", func(line, fields int) {
		bad = append(bad, line)
	})
	require.NoError(t, err)
	assert.Equal(t, "cda_fi_BLC_4_1.csv", member)
	assert.Equal(t, 2, named.Len())
	assert.Equal(t, []int{3}, bad)

	types, _ := named.Strings(contracts.ColApplicationType)
	assert.Equal(t, []string{"Debêntures", "CRI"}, types, "latin-1 decoded")
	periods, _ := named.Strings(contracts.ColPeriod)
	assert.Equal(t, []string{"202401", "202401"}, periods)
}

func TestParseArchiveErrors(t *testing.T) {
	_, _, err := ParseArchive([]byte("not a zip"), "", "1", nil)
	assert.Error(t, err)

	data := zipOf(t, map[string]string{"readme.txt": "x"}, "readme.txt")
	_, _, err = ParseArchive(data, "", "1", nil)
	assert.ErrorContains(t, err, "no CSV file")

	_, _, err = ParseArchive(data, "missing.csv", "1", nil)
	assert.ErrorContains(t, err, "missing.csv")
}

func TestFetchSkipsFailedPeriods(t *testing.T) {
	srv := archiveServer(t, map[string][]byte{
		"cda_fi_202401.zip": zipOf(t, map[string]string{"cda_fi_BLC_4_202401.csv": blcCSV}, "cda_fi_BLC_4_202401.csv"),
		"cda_fi_202403.zip": zipOf(t, map[string]string{"cda_fi_BLC_4_202403.csv": "CNPJ_FUNDO_CLASSE;TP_APLIC;VL_MERC_POS_FINAL\nF3;CRA;10\n"}, "cda_fi_BLC_4_202403.csv"),
		"pl_202401.zip":     []byte("corrupt"),
	}, "")

	sources := []Source{
		{
			Dataset:          "cda_fi_BLC_4",
			BaseURL:          srv.URL + "/dados/",
			FilenameTemplate: "cda_fi_{period}.zip",
			Member:           "cda_fi_BLC_4_{period}.csv",
			Periods:          []string{"202401", "202402", "202403"},
		},
		{
			Dataset:          "cda_fi_PL",
			BaseURL:          srv.URL + "/dados/",
			FilenameTemplate: "pl_{period}.zip",
			Periods:          []string{"202401"},
		},
	}

	report, err := newTestClient().Fetch(context.Background(), sources, "2026-01-12")
	require.NoError(t, err)

	assert.Equal(t, []string{"cda_fi_BLC_4"}, report.Datasets)
	assert.Equal(t, []string{"cda_fi_PL"}, report.Dropped)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "202402", report.Failures[0].Period)
	assert.Equal(t, srv.URL+"/dados/cda_fi_202402.zip", report.Failures[0].URL)
	assert.ErrorIs(t, &report.Failures[0], contracts.ErrFetch)
	assert.Equal(t, "cda_fi_PL", report.Failures[1].Dataset)

	blc := report.Tables["cda_fi_BLC_4"]
	require.NotNil(t, blc)
	funds, _ := blc.Strings(contracts.ColFundClass)
	assert.Equal(t, []string{"F1", "F2", "F3"}, funds, "periods keep manifest order")
	refs, _ := blc.Strings(contracts.ColReferenceDate)
	assert.Equal(t, []string{"2026-01-12", "2026-01-12", "2026-01-12"}, refs)
	assert.Equal(t, []string{"202401", "202403"}, Periods(blc))
}

func TestFetchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient().Fetch(ctx, []Source{{Dataset: "x", BaseURL: "http://127.0.0.1:1/", FilenameTemplate: "{period}", Periods: []string{"1"}}}, "2026-01-01")
	assert.ErrorIs(t, err, context.Canceled)
}

const listing = `<html><body><pre>
<a href="../">../</a>
<a href="cda_fi_202311.zip">cda_fi_202311.zip</a>
<a href="cda_fi_202401.zip">cda_fi_202401.zip</a>
<a href="cda_fi_202312.zip?x=1">cda_fi_202312.zip</a>
<a href="/dados/cda_fi_202401.zip">dup</a>
<a href="cda_fie_202401.zip">other dataset</a>
<a href="cda_fi_meta.txt">meta</a>
</pre></body></html>`

func TestParseListing(t *testing.T) {
	periods, err := ParseListing([]byte(listing), "cda_fi_{period}.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"202311", "202312", "202401"}, periods)

	_, err = ParseListing([]byte(listing), "cda_fi.zip")
	assert.Error(t, err)
}

func TestFetchDiscoversLatestPeriods(t *testing.T) {
	body := "CNPJ_FUNDO_CLASSE;VL_PATRIM_LIQ\nF1;10\n"
	srv := archiveServer(t, map[string][]byte{
		"cda_fi_202312.zip": zipOf(t, map[string]string{"pl.csv": body}, "pl.csv"),
		"cda_fi_202401.zip": zipOf(t, map[string]string{"pl.csv": body}, "pl.csv"),
	}, listing)

	report, err := newTestClient().Fetch(context.Background(), []Source{{
		Dataset:          "cda_fi_PL",
		BaseURL:          srv.URL + "/dados/",
		FilenameTemplate: "cda_fi_{period}.zip",
		Latest:           2,
	}}, "2026-01-12")
	require.NoError(t, err)
	require.Empty(t, report.Failures)

	assert.Equal(t, []string{"202312", "202401"}, Periods(report.Tables["cda_fi_PL"]))
}

func TestWritePartitions(t *testing.T) {
	srv := archiveServer(t, map[string][]byte{
		"cda_fi_202401.zip": zipOf(t, map[string]string{"a.csv": blcCSV}, "a.csv"),
		"cda_fi_202402.zip": zipOf(t, map[string]string{"a.csv": blcCSV}, "a.csv"),
	}, "")

	report, err := newTestClient().Fetch(context.Background(), []Source{{
		Dataset:          "cda_fi_BLC_4",
		BaseURL:          srv.URL + "/dados/",
		FilenameTemplate: "cda_fi_{period}.zip",
		Periods:          []string{"202401", "202402"},
	}}, "2026-01-12")
	require.NoError(t, err)

	root := t.TempDir()
	written, err := WritePartitions(root, report, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "cda_fi_BLC_4", "period=202401", "data.parquet"),
		filepath.Join(root, "cda_fi_BLC_4", "period=202402", "data.parquet"),
	}, written)

	back, err := store.ReadPartitioned(root, "cda_fi_BLC_4")
	require.NoError(t, err)
	assert.Equal(t, 4, back.Len())
	assert.Equal(t, []string{"202401", "202402"}, Periods(back))
}

func TestSourceTemplates(t *testing.T) {
	src := Source{BaseURL: "https://x.test/", FilenameTemplate: "cda_fi_{period}.zip", Member: "cda_fi_BLC_4_{period}.csv"}
	assert.Equal(t, "https://x.test/cda_fi_202401.zip", src.URL("202401"))
	assert.Equal(t, "cda_fi_BLC_4_202401.csv", src.MemberName("202401"))
	assert.Equal(t, "", Source{}.MemberName("202401"))
}
