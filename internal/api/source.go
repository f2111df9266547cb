package api

import (
	"fmt"

	"github.com/gpadpoll/fixed-income-fund-recsys/internal/contracts"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/policy"
	"github.com/gpadpoll/fixed-income-fund-recsys/internal/table"
)

// TableSource serves rankings from a profile-scored table held in memory
type TableSource struct {
	table    *table.Table
	cols     policy.Columns
	profiles []string
	known    map[string]bool
}

var _ contracts.RankingSource = (*TableSource)(nil)

// NewTableSource wraps t; it fails when t carries no profile columns
func NewTableSource(t *table.Table, cols policy.Columns) (*TableSource, error) {
	profiles := policy.ProfilesIn(t)
	if len(profiles) == 0 {
		return nil, contracts.Configf("input", "table has no score_<profile>/rank_<profile> columns")
	}
	known := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		known[p] = true
	}
	return &TableSource{table: t, cols: cols, profiles: profiles, known: known}, nil
}

// Profiles lists the ranked profiles, in column order
func (s *TableSource) Profiles() []string {
	return append([]string(nil), s.profiles...)
}

// Ranking returns up to limit funds of one period, best first. An empty
// period selects the latest; limit <= 0 returns every fund.
func (s *TableSource) Ranking(profile, period string, limit int) ([]contracts.RankedFund, error) {
	if !s.known[profile] {
		return nil, &contracts.NotFoundError{Resource: "profile", Path: profile}
	}

	top, selected, err := policy.Top(s.table, profile, limit, period, s.cols)
	if err != nil {
		return nil, err
	}
	if top.Len() == 0 {
		return nil, &contracts.NotFoundError{Resource: "period", Path: fmt.Sprintf("%s/%s", profile, selected)}
	}
	return policy.Rankings(top, profile, s.cols)
}
