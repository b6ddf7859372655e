package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Zavosh/ClearVote2.0/internal/llm"
	"github.com/Zavosh/ClearVote2.0/internal/model"
)

// scriptedClient returns canned replies (or errors) in call order.
type scriptedClient struct {
	replies  []string
	errs     []error
	calls    int
	requests []llm.Request
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) IsAvailable(ctx context.Context) bool { return true }

func (c *scriptedClient) CompleteJSON(ctx context.Context, req llm.Request) (string, error) {
	i := c.calls
	c.calls++
	c.requests = append(c.requests, req)

	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.replies) {
		return c.replies[i], nil
	}
	return "", fmt.Errorf("no scripted reply for call %d", i)
}

var (
	testStmt = model.Statement{
		ID:      1,
		Content: "I will always vote to protect consumer privacy.",
	}
	testVote = model.Vote{ID: 2, BillID: "ca-AB853", Choice: model.VoteNo, VoteType: "floor", VoteDate: "2026-05-01"}
	testBill = model.Bill{ID: "ca-AB853", Number: "AB-853", Title: "California AI Transparency Act"}
)

func TestClassify_NormalReply(t *testing.T) {
	client := &scriptedClient{replies: []string{`{
		"statement_summary": "Supports privacy protections",
		"vote_summary": "Voted no on AI transparency",
		"discrepancy_type": "contradictory",
		"confidence_score": 4,
		"explanation": "The vote opposes the stated position.",
		"requires_review": false
	}`}}
	classifier := NewClassifier(client, false)

	got := classifier.Classify(context.Background(), testStmt, testVote, testBill)

	if got.Type != model.TypeContradictory {
		t.Errorf("Expected contradictory, got %q", got.Type)
	}
	if got.Confidence != 4 {
		t.Errorf("Expected confidence 4, got %d", got.Confidence)
	}
	if got.RequiresReview {
		t.Error("Expected requires_review false for confidence 4")
	}
}

func TestClassify_TypeNormalization(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.DiscrepancyType
	}{
		{"uppercase", "CONTRADICTORY", model.TypeContradictory},
		{"padded", "  consistent  ", model.TypeConsistent},
		{"unknown", "maybe", model.TypeNuanced},
		{"empty", "", model.TypeNuanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{replies: []string{fmt.Sprintf(
				`{"discrepancy_type": %q, "confidence_score": 3}`, tt.raw)}}
			classifier := NewClassifier(client, false)

			got := classifier.Classify(context.Background(), testStmt, testVote, testBill)
			if got.Type != tt.want {
				t.Errorf("Expected %q for raw %q, got %q", tt.want, tt.raw, got.Type)
			}
		})
	}
}

func TestClassify_ConfidenceHandling(t *testing.T) {
	tests := []struct {
		name           string
		rawScore       string // JSON literal
		wantConfidence int
		wantReview     bool
	}{
		{"in range", `3`, 3, false},
		{"low triggers review", `2`, 2, true},
		{"numeric string", `"4"`, 4, false},
		// Out-of-range values clamp to 1, but a high raw value does not
		// trigger the low-confidence review rule
		{"above range", `7`, 1, false},
		{"below range", `0`, 1, true},
		{"non-numeric", `"high"`, 1, false},
		{"missing", `null`, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{replies: []string{fmt.Sprintf(
				`{"discrepancy_type": "consistent", "confidence_score": %s}`, tt.rawScore)}}
			classifier := NewClassifier(client, false)

			got := classifier.Classify(context.Background(), testStmt, testVote, testBill)
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Expected confidence %d, got %d", tt.wantConfidence, got.Confidence)
			}
			if got.RequiresReview != tt.wantReview {
				t.Errorf("Expected requires_review %v, got %v", tt.wantReview, got.RequiresReview)
			}
		})
	}
}

func TestClassify_ReportedReviewFlagSticks(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"discrepancy_type": "consistent", "confidence_score": 5, "requires_review": true}`}}
	classifier := NewClassifier(client, false)

	got := classifier.Classify(context.Background(), testStmt, testVote, testBill)
	if !got.RequiresReview {
		t.Error("Expected reported requires_review flag to survive high confidence")
	}
}

func TestClassify_CallFailure(t *testing.T) {
	client := &scriptedClient{errs: []error{fmt.Errorf("connection refused")}}
	classifier := NewClassifier(client, false)

	got := classifier.Classify(context.Background(), testStmt, testVote, testBill)

	if got.Type != model.TypeNuanced {
		t.Errorf("Expected nuanced fallback, got %q", got.Type)
	}
	if got.Confidence != 1 {
		t.Errorf("Expected confidence 1, got %d", got.Confidence)
	}
	if !got.RequiresReview {
		t.Error("Expected fallback to require review")
	}
	if !strings.HasPrefix(got.Explanation, "Error during analysis:") {
		t.Errorf("Expected error explanation, got %q", got.Explanation)
	}
	if got.StatementSummary != "Analysis failed" {
		t.Errorf("Expected 'Analysis failed' summary, got %q", got.StatementSummary)
	}
}

func TestClassify_MalformedReply(t *testing.T) {
	client := &scriptedClient{replies: []string{`not json at all`}}
	classifier := NewClassifier(client, false)

	got := classifier.Classify(context.Background(), testStmt, testVote, testBill)
	if got.Type != model.TypeNuanced || got.Confidence != 1 || !got.RequiresReview {
		t.Errorf("Expected fallback record for malformed reply, got %+v", got)
	}
}

func TestClassify_MissingFieldsGetDefaults(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"discrepancy_type": "consistent", "confidence_score": 4}`}}
	classifier := NewClassifier(client, false)

	got := classifier.Classify(context.Background(), testStmt, testVote, testBill)
	if got.StatementSummary != "No summary available" {
		t.Errorf("Expected default statement summary, got %q", got.StatementSummary)
	}
	if got.Explanation != "No explanation provided" {
		t.Errorf("Expected default explanation, got %q", got.Explanation)
	}
}

func TestCheckRelevance(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  bool
	}{
		{"explicit true", `{"is_relevant": true, "reason": "same policy area"}`, nil, true},
		{"explicit false", `{"is_relevant": false, "reason": "different topics"}`, nil, false},
		{"missing field defaults relevant", `{"reason": "unclear"}`, nil, true},
		{"mistyped field defaults relevant", `{"is_relevant": "no"}`, nil, true},
		{"malformed reply defaults relevant", `nonsense`, nil, true},
		{"call failure defaults relevant", ``, fmt.Errorf("timeout"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{replies: []string{tt.reply}, errs: []error{tt.err}}
			classifier := NewClassifier(client, false)

			got := classifier.CheckRelevance(context.Background(), testStmt, testBill)
			if got.IsRelevant != tt.want {
				t.Errorf("Expected is_relevant %v, got %v (reason %q)", tt.want, got.IsRelevant, got.Reason)
			}
		})
	}
}

func TestAnalyzePair_RejectionSkipsClassification(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"is_relevant": false, "reason": "statement is about dairy farming"}`}}
	classifier := NewClassifier(client, false)

	classification, relevance := classifier.AnalyzePair(context.Background(), testStmt, testVote, testBill)

	if classification != nil {
		t.Errorf("Expected nil classification on rejection, got %+v", classification)
	}
	if relevance.IsRelevant {
		t.Error("Expected relevance rejection")
	}
	if client.calls != 1 {
		t.Errorf("Expected exactly 1 call (no classification), got %d", client.calls)
	}
}

func TestAnalyzePair_RelevantPairIsClassified(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"is_relevant": true, "reason": "same policy area"}`,
		`{"discrepancy_type": "contradictory", "confidence_score": 5, "explanation": "clear conflict"}`,
	}}
	classifier := NewClassifier(client, false)

	classification, relevance := classifier.AnalyzePair(context.Background(), testStmt, testVote, testBill)

	if !relevance.IsRelevant {
		t.Fatalf("Expected relevant pair, got rejection: %q", relevance.Reason)
	}
	if classification == nil {
		t.Fatal("Expected a classification")
	}
	if classification.Type != model.TypeContradictory || classification.Confidence != 5 {
		t.Errorf("Unexpected classification: %+v", classification)
	}
	if client.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", client.calls)
	}
}

func TestBuildClassifyPrompt_IncludesContext(t *testing.T) {
	prompt := buildClassifyPrompt(testStmt, testVote, testBill)

	for _, want := range []string{
		testStmt.Content,
		"AB-853",
		"NO",
		"floor",
		"No summary available",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}
