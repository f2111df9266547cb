package registry

// FeatureDefinition names a method, its positional arguments and the
// adjustments applied, in order, to the computed column.
type FeatureDefinition struct {
	Name        string
	Method      string
	Args        []interface{}
	Adjustments []string
}

// ScoreType is a supported standardization
type ScoreType string

const (
	ScoreZ ScoreType = "zscore"
)

// ScoreDefinition standardizes one feature column into a score column
type ScoreDefinition struct {
	Name     string
	Type     ScoreType
	Feature  string
	Invert   bool // multiply by -1 after standardization
	Coalesce bool // replace null with 0, applied after Invert
}

// Weight is one score column and its weight within a profile
type Weight struct {
	Column string
	Weight float64
}

// ProfileDefinition is an ordered set of weighted score columns.
// Weights need not sum to 1.
type ProfileDefinition struct {
	Name    string
	Weights []Weight
}

// ScoreColumn is the output column holding the profile's weighted score
func (p ProfileDefinition) ScoreColumn() string {
	return "score_" + p.Name
}

// RankColumn is the output column holding the profile's dense rank
func (p ProfileDefinition) RankColumn() string {
	return "rank_" + p.Name
}
