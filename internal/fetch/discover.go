package fetch

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Discover lists the archive links on the directory page at BaseURL and
// returns the Latest most recent periods matching FilenameTemplate, oldest
// first
func (c *Client) Discover(ctx context.Context, src Source) ([]string, error) {
	body, err := c.http.GetBytes(ctx, src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", src.BaseURL, err)
	}

	periods, err := ParseListing(body, src.FilenameTemplate)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("no archive matching %s at %s", src.FilenameTemplate, src.BaseURL)
	}
	if src.Latest > 0 && len(periods) > src.Latest {
		periods = periods[len(periods)-src.Latest:]
	}

	c.logger.WithFields(map[string]interface{}{
		"dataset": src.Dataset,
		"periods": periods,
	}).Debug("Discovered periods")
	return periods, nil
}

// ParseListing extracts the periods of every link whose file name matches
// the template, sorted ascending and de-duplicated
func ParseListing(html []byte, template string) ([]string, error) {
	re, err := templatePattern(template)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	seen := make(map[string]bool)
	var periods []string
	doc.Find("a[href]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if j := strings.IndexAny(href, "?#"); j >= 0 {
			href = href[:j]
		}
		m := re.FindStringSubmatch(path.Base(href))
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		periods = append(periods, m[1])
	})

	// equal-width digit strings sort chronologically; shorter sorts first
	sort.Slice(periods, func(i, j int) bool {
		if len(periods[i]) != len(periods[j]) {
			return len(periods[i]) < len(periods[j])
		}
		return periods[i] < periods[j]
	})
	return periods, nil
}

func templatePattern(template string) (*regexp.Regexp, error) {
	before, after, ok := strings.Cut(template, PeriodPlaceholder)
	if !ok {
		return nil, fmt.Errorf("template %q has no %s placeholder", template, PeriodPlaceholder)
	}
	return regexp.MustCompile("^" + regexp.QuoteMeta(before) + `(\d+)` + regexp.QuoteMeta(after) + "$"), nil
}
