package contracts

import (
	"context"
)

// RankingSink receives profile rankings once the policy stage completes
type RankingSink interface {
	PublishRanks(ctx context.Context, ranks []RankedFund) (int64, error)
}

// RankingSource serves profile rankings to readers such as the HTTP API
type RankingSource interface {
	Profiles() []string
	Ranking(profile, period string, limit int) ([]RankedFund, error)
}
