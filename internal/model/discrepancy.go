package model

import "time"

// DiscrepancyType classifies how a statement relates to a vote.
type DiscrepancyType string

const (
	TypeConsistent    DiscrepancyType = "consistent"    // Vote aligns with the stated position
	TypeNuanced       DiscrepancyType = "nuanced"       // Context explains the difference
	TypeContradictory DiscrepancyType = "contradictory" // Vote contradicts the stated position
)

// Valid reports whether t is one of the three recognized types.
func (t DiscrepancyType) Valid() bool {
	switch t {
	case TypeConsistent, TypeNuanced, TypeContradictory:
		return true
	}
	return false
}

// Classification is the normalized output of one consistency-classifier call.
// Confidence is always within [1,5] and Type is always a valid enum value by
// the time a Classification exists; raw service output never crosses this
// boundary unclamped.
type Classification struct {
	StatementSummary string          `json:"statement_summary"`
	VoteSummary      string          `json:"vote_summary"`
	Type             DiscrepancyType `json:"discrepancy_type"`
	Confidence       int             `json:"confidence_score"` // 1..5
	Explanation      string          `json:"explanation"`
	RequiresReview   bool            `json:"requires_review"`
}

// Discrepancy is the persisted outcome of comparing one statement against one
// vote. At most one exists per (StatementID, VoteID) pair.
type Discrepancy struct {
	ID               int64           `json:"id"`
	SubjectID        int64           `json:"subject_id"`
	StatementID      int64           `json:"statement_id"`
	BillID           string          `json:"bill_id"`
	VoteID           int64           `json:"vote_id"`
	Type             DiscrepancyType `json:"discrepancy_type"`
	Confidence       int             `json:"confidence_score"`
	Explanation      string          `json:"explanation,omitempty"`
	StatementSummary string          `json:"statement_summary,omitempty"`
	VoteSummary      string          `json:"vote_summary,omitempty"`
	RequiresReview   bool            `json:"requires_review"`
	CreatedAt        time.Time       `json:"created_at"`
}
