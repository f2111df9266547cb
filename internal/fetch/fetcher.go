package fetch

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/logger"
	"github.com/gpadpoll/fixed-income-fund-recsys/pkg/metrics"
)

// Getter downloads a URL; *httputil.Client satisfies it
type Getter interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// DefaultWorkers bounds concurrent downloads per dataset
const DefaultWorkers = 4

// Client fetches manifest sources
type Client struct {
	http    Getter
	logger  *logger.Logger
	metrics *metrics.Metrics

	// Workers bounds concurrent period downloads; <= 0 means DefaultWorkers
	Workers int
}

// NewClient creates a fetch client
func NewClient(http Getter, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{http: http, logger: log, Workers: DefaultWorkers}
}

// WithMetrics records rows and failures on m
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Report is the outcome of a fetch run. A dataset whose every period
// failed is listed in Dropped and absent from Tables.
type Report struct {
	Datasets []string // fetched datasets, in manifest order
	Tables   map[string]*table.Table
	Failures []contracts.FetchFailure
	Dropped  []string
}

// Fetch downloads every period of every source. Failed periods are recorded
// and skipped; the only error returned is the context's.
func (c *Client) Fetch(ctx context.Context, sources []Source, referenceDate string) (*Report, error) {
	report := &Report{Tables: make(map[string]*table.Table)}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		t, failures := c.fetchSource(ctx, src)
		report.Failures = append(report.Failures, failures...)
		for range failures {
			c.metrics.AddFetchFailure(src.Dataset)
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if t == nil {
			c.logger.WithFields(map[string]interface{}{
				"dataset":  src.Dataset,
				"failures": len(failures),
			}).Error("No data retrieved for dataset")
			report.Dropped = append(report.Dropped, src.Dataset)
			continue
		}

		refs := make([]string, t.Len())
		for i := range refs {
			refs[i] = referenceDate
		}
		if err := t.AddStrings(contracts.ColReferenceDate, refs); err != nil {
			return report, err
		}

		report.Datasets = append(report.Datasets, src.Dataset)
		report.Tables[src.Dataset] = t
		c.metrics.SetRows(src.Dataset, t.Len())
	}
	return report, nil
}

// fetchSource returns the concatenated periods of one source, or nil when
// none succeeded
func (c *Client) fetchSource(ctx context.Context, src Source) (*table.Table, []contracts.FetchFailure) {
	periods := src.Periods
	if len(periods) == 0 && src.Latest > 0 {
		found, err := c.Discover(ctx, src)
		if err != nil {
			return nil, []contracts.FetchFailure{{Dataset: src.Dataset, URL: src.BaseURL, Err: err}}
		}
		periods = found
	}

	tables := make([]*table.Table, len(periods))
	failures := make([]*contracts.FetchFailure, len(periods))

	workers := c.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, period := range periods {
		i, period := i, period
		g.Go(func() error {
			t, err := c.fetchPeriod(gctx, src, period)
			if err != nil {
				failures[i] = &contracts.FetchFailure{
					Dataset: src.Dataset,
					Period:  period,
					URL:     src.URL(period),
					Err:     err,
				}
				c.logger.WithError(err).WithFields(map[string]interface{}{
					"dataset": src.Dataset,
					"period":  period,
				}).Warn("Skipped period")
				return nil
			}
			tables[i] = t
			return nil
		})
	}
	_ = g.Wait()

	var ok []*table.Table
	var failed []contracts.FetchFailure
	for i := range periods {
		if failures[i] != nil {
			failed = append(failed, *failures[i])
			continue
		}
		ok = append(ok, tables[i])
	}
	if len(ok) == 0 {
		return nil, failed
	}
	return table.Concat(ok...), failed
}

func (c *Client) fetchPeriod(ctx context.Context, src Source, period string) (*table.Table, error) {
	url := src.URL(period)
	start := time.Now()

	data, err := c.http.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	t, member, err := ParseArchive(data, src.MemberName(period), period, func(line, fields int) {
		c.logger.WithFields(map[string]interface{}{
			"dataset": src.Dataset,
			"period":  period,
			"line":    line,
			"fields":  fields,
		}).Warn("Skipped malformed line")
	})
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"dataset":  src.Dataset,
		"period":   period,
		"member":   member,
		"rows":     t.Len(),
		"bytes":    len(data),
		"duration": time.Since(start),
	}).Info("Parsed archive")
	return t, nil
}

// Periods returns the distinct values of the period column, sorted
func Periods(t *table.Table) []string {
	vals, ok := t.Strings(contracts.ColPeriod)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
