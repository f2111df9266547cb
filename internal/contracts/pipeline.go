package contracts

// Pipeline stages, used in logs, metrics labels and run summaries.
//
//   fetch → feature → score → policy → publish
//   raw CVM files → per-fund features → z-scores → profile ranks → sinks

// Stage represents a pipeline stage
type Stage string

const (
	// StageFetch downloads CVM disclosure archives and writes period partitions
	// 위치: internal/fetch/
	StageFetch Stage = "FETCH"

	// StageFeature aggregates raw rows into per-fund features
	// 위치: internal/feature/
	StageFeature Stage = "FEATURE"

	// StageScore standardizes features into group z-scores
	// 위치: internal/score/
	StageScore Stage = "SCORE"

	// StagePolicy combines scores into investor-profile scores and ranks
	// 위치: internal/policy/
	StagePolicy Stage = "POLICY"

	// StagePublish writes rankings to external sinks (PostgreSQL, xlsx)
	// 위치: internal/store/
	StagePublish Stage = "PUBLISH"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns a short human description of the stage
func (s Stage) Description() string {
	switch s {
	case StageFetch:
		return "download raw datasets"
	case StageFeature:
		return "build per-fund features"
	case StageScore:
		return "standardize features"
	case StagePolicy:
		return "profile scores and ranks"
	case StagePublish:
		return "publish rankings"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageFetch,
		StageFeature,
		StageScore,
		StagePolicy,
		StagePublish,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult summarizes one stage execution for logs and run reports
type StageResult struct {
	RunID      string                 `json:"run_id"`
	Stage      Stage                  `json:"stage"`
	InputRows  int                    `json:"input_rows"`
	OutputRows int                    `json:"output_rows"`
	Duration   int64                  `json:"duration_ms"`
	ConfigHash string                 `json:"config_hash,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
