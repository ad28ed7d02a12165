package types

// MatchStrategy identifies which cascade strategy located a destination unit.
type MatchStrategy string

const (
	StrategyExact      MatchStrategy = "exact"
	StrategySimilarity MatchStrategy = "similarity"
	StrategyKeyword    MatchStrategy = "keyword"
	StrategyNone       MatchStrategy = "none"
)

// MatchResult is the outcome of matching one extraction against the destination.
type MatchResult struct {
	RegionID string
	UnitID   string // Empty when not accepted
	Strategy MatchStrategy
	Score    float64
	Accepted bool
}

// Operation is the mutation type applied to a destination unit.
type Operation string

const (
	OpReplace Operation = "replace"
	OpDelete  Operation = "delete"
	OpAppend  Operation = "append"
)

// ChangeRecord is one applied mutation. Records form an append-only audit
// trail for a single run.
type ChangeRecord struct {
	RegionID string        `json:"region_id"`
	UnitID   string        `json:"unit_id"`
	Op       Operation     `json:"operation"`
	Before   string        `json:"before"`
	After    string        `json:"after"`
	Strategy MatchStrategy `json:"strategy"`
	Failed   bool          `json:"failed,omitempty"` // Adapter could not apply
	Err      string        `json:"error,omitempty"`
}
