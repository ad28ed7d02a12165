package types

import "time"

// StrategyBreakdown counts accepted matches per strategy.
type StrategyBreakdown struct {
	ExactMatches      int `json:"exact_matches"`
	SimilarityMatches int `json:"similarity_matches"`
	KeywordMatches    int `json:"keyword_matches"`
	FailedMatches     int `json:"failed_matches"`
}

// OperationBreakdown counts applied mutations per operation type.
type OperationBreakdown struct {
	Replacements int `json:"replacements"`
	Deletions    int `json:"deletions"`
	Appends      int `json:"appends"`
}

// SectionStats counts per-region extraction outcomes.
type SectionStats struct {
	SuccessfulSections int `json:"successful_sections"`
	FailedSections     int `json:"failed_sections"`
	EmptySections      int `json:"empty_sections"`
}

// ChangeStats aggregates applied-change counters.
type ChangeStats struct {
	TotalChangesApplied int                `json:"total_changes_applied"`
	StrategyBreakdown   StrategyBreakdown  `json:"strategy_breakdown"`
	OperationBreakdown  OperationBreakdown `json:"operation_breakdown"`
	FailedApplications  int                `json:"failed_applications"`
}

// RunStats is the aggregate result of one processing run.
// All counters are monotonic non-decreasing during a run.
type RunStats struct {
	RunID           string        `json:"run_id"`
	Mode            DocumentMode  `json:"mode"`
	ChunksProcessed int           `json:"chunks_processed"`
	Sections        SectionStats  `json:"sections"`
	Changes         ChangeStats   `json:"changes"`
	Unmatched       int           `json:"unmatched"`
	OutputPath      string        `json:"output_path,omitempty"`
	Elapsed         time.Duration `json:"elapsed"`
}

// RecordMatch increments the strategy counter for an accepted match.
func (s *RunStats) RecordMatch(strategy MatchStrategy) {
	switch strategy {
	case StrategyExact:
		s.Changes.StrategyBreakdown.ExactMatches++
	case StrategySimilarity:
		s.Changes.StrategyBreakdown.SimilarityMatches++
	case StrategyKeyword:
		s.Changes.StrategyBreakdown.KeywordMatches++
	case StrategyNone:
		s.Changes.StrategyBreakdown.FailedMatches++
		s.Unmatched++
	}
}

// RecordChange increments the operation counter for an applied change.
func (s *RunStats) RecordChange(op Operation) {
	s.Changes.TotalChangesApplied++
	switch op {
	case OpReplace:
		s.Changes.OperationBreakdown.Replacements++
	case OpDelete:
		s.Changes.OperationBreakdown.Deletions++
	case OpAppend:
		s.Changes.OperationBreakdown.Appends++
	}
}
