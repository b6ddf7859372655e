package model

// Bill represents a legislative bill from the external catalog.
// The pipeline treats bills as read-only input.
type Bill struct {
	ID      string   `json:"id"`      // Stable catalog identifier (e.g. "ca-AB853")
	Number  string   `json:"number"`  // Canonical bill number (e.g. "AB-853")
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Topics  []string `json:"topics,omitempty"`
}

// VoteChoice is the recorded position on a roll call.
type VoteChoice string

const (
	VoteYes       VoteChoice = "yes"
	VoteNo        VoteChoice = "no"
	VoteAbstain   VoteChoice = "abstain"
	VoteNotVoting VoteChoice = "not_voting"
)

// Vote represents a subject's recorded vote on a bill. Produced by the
// external vote-scraping collaborator; read-only input to the pipeline.
type Vote struct {
	ID        int64      `json:"id"`
	SubjectID int64      `json:"subject_id"`
	BillID    string     `json:"bill_id"`
	Choice    VoteChoice `json:"choice"`
	VoteType  string     `json:"vote_type,omitempty"` // e.g. "floor", "committee", "cloture"
	VoteDate  string     `json:"vote_date,omitempty"`
}
