package policy

import (
	"sort"
	"strconv"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/registry"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// Columns names the identifying columns of a ranked table
type Columns struct {
	Fund   string
	Name   string
	Period string
}

// DefaultColumns matches the CDA group key
var DefaultColumns = Columns{
	Fund:   contracts.ColFundClass,
	Name:   "DENOM_SOCIAL",
	Period: contracts.DefaultGroupKey,
}

// Top returns at most n rows of one period sorted by the profile score,
// best first, with null scores last. An empty period selects the latest
// period present. The selected period is returned alongside the rows.
func Top(t *table.Table, profile string, n int, period string, cols Columns) (*table.Table, string, error) {
	scoreCol := registry.ProfileDefinition{Name: profile}.ScoreColumn()
	scores, ok := t.Numeric(scoreCol)
	if !ok {
		return nil, "", contracts.Configf("profile", "profile %q has no %s column; run policy profile-score first", profile, scoreCol)
	}

	var periods []string
	if p, ok := t.Strings(cols.Period); ok {
		periods = p
		if period == "" {
			period = LatestPeriod(periods)
		}
	}

	var rows []int
	for i := 0; i < t.Len(); i++ {
		if periods != nil && period != "" && periods[i] != period {
			continue
		}
		rows = append(rows, i)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		sa, sb := scores[rows[a]], scores[rows[b]]
		if sa.Valid != sb.Valid {
			return sa.Valid
		}
		return sa.Valid && sa.V > sb.V
	})

	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return t.Take(rows), period, nil
}

// LatestPeriod returns the greatest non-empty period, comparing numerically
// when both sides are numbers
func LatestPeriod(periods []string) string {
	latest := ""
	for _, p := range periods {
		if p == "" {
			continue
		}
		if latest == "" || periodLess(latest, p) {
			latest = p
		}
	}
	return latest
}

func periodLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}

// Rankings extracts one profile's ranking as typed rows, in table order
func Rankings(t *table.Table, profile string, cols Columns) ([]contracts.RankedFund, error) {
	def := registry.ProfileDefinition{Name: profile}
	scores, ok := t.Numeric(def.ScoreColumn())
	if !ok {
		return nil, contracts.Configf("profile", "profile %q has no %s column", profile, def.ScoreColumn())
	}
	ranks, ok := t.Numeric(def.RankColumn())
	if !ok {
		return nil, contracts.Configf("profile", "profile %q has no %s column", profile, def.RankColumn())
	}

	funds := stringsOrEmpty(t, cols.Fund)
	names := stringsOrEmpty(t, cols.Name)
	periods := stringsOrEmpty(t, cols.Period)

	out := make([]contracts.RankedFund, t.Len())
	for i := range out {
		r := contracts.RankedFund{
			Fund:    funds[i],
			Name:    names[i],
			Period:  periods[i],
			Profile: profile,
			Rank:    int(ranks[i].Or(0)),
		}
		if scores[i].Valid {
			v := scores[i].V
			r.Score = &v
		}
		out[i] = r
	}
	return out, nil
}

// ProfilesIn lists profiles that have a score column in t, in column order
func ProfilesIn(t *table.Table) []string {
	var out []string
	for _, c := range t.Columns() {
		if len(c) > len("score_") && c[:len("score_")] == "score_" {
			name := c[len("score_"):]
			if t.Has("rank_" + name) {
				out = append(out, name)
			}
		}
	}
	return out
}

func stringsOrEmpty(t *table.Table, name string) []string {
	if name != "" {
		if vals, ok := t.Strings(name); ok {
			return vals
		}
	}
	return make([]string, t.Len())
}
