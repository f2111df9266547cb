package contracts

// RankedFund is one row of a profile ranking, as served by the API and
// published to PostgreSQL. Score is nil when the fund could not be scored
// (any weighted input was null); such funds carry Rank 0.
type RankedFund struct {
	Fund    string   `json:"fund"`
	Name    string   `json:"name,omitempty"`
	Period  string   `json:"period"`
	Profile string   `json:"profile"`
	Score   *float64 `json:"score"`
	Rank    int      `json:"rank"` // dense, 1 = best
}

// IsRanked reports whether the fund received a rank
func (r *RankedFund) IsRanked() bool {
	return r.Rank > 0
}

// IsTopRanked checks if the fund is in the top N ranks
func (r *RankedFund) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}
