// Package analysis compares a statement against a recorded vote via the
// reasoning service and normalizes the reply into a bounded classification.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Zavosh/ClearVote2.0/internal/llm"
	"github.com/Zavosh/ClearVote2.0/internal/model"
)

const classifierSystem = `You are a nonpartisan political analyst specializing in comparing politicians'
public statements with their voting records. Your analysis must be:
- Factual and evidence-based
- Aware of procedural context (amendments, procedural votes)
- Clear about uncertainty when context is insufficient
- Objective and unbiased

You will analyze statement/vote pairs and determine if there's a discrepancy.

Important considerations:
- Cloture votes (to end debate) are NOT votes on the bill itself
- "Motion to recommit" votes are often procedural objections
- Votes against omnibus bills may oppose unrelated provisions
- Party-line votes may reflect caucus strategy, not personal position
- Bills that were significantly amended may have changed intent

Respond ONLY with valid JSON matching the required schema.`

const relevanceSystem = "You are a relevance checker for political statements and bills. Be strict and only match statements that are directly related to the bill topic."

// Relevance is the oracle's answer to whether a statement and bill share a
// policy domain.
type Relevance struct {
	IsRelevant bool   `json:"is_relevant"`
	Reason     string `json:"reason"`
}

// Classifier runs the relevance oracle and the consistency classification.
type Classifier struct {
	client  llm.Client
	verbose bool
}

// NewClassifier creates a new classifier over the given reasoning client
func NewClassifier(client llm.Client, verbose bool) *Classifier {
	return &Classifier{client: client, verbose: verbose}
}

// CheckRelevance asks a strict yes/no question: does this statement discuss
// the same policy domain as this bill? On call failure the conservative
// default is relevant — completing an analysis beats silently dropping
// potentially valid evidence.
func (c *Classifier) CheckRelevance(ctx context.Context, stmt model.Statement, bill model.Bill) Relevance {
	reply, err := c.client.CompleteJSON(ctx, llm.Request{
		System:      relevanceSystem,
		Prompt:      buildRelevancePrompt(stmt, bill),
		Temperature: 0.1,
	})
	if err != nil {
		if c.verbose {
			fmt.Fprintf(os.Stderr, "relevance check failed: %v\n", err)
		}
		return Relevance{IsRelevant: true, Reason: "Error during relevance check"}
	}

	var raw struct {
		IsRelevant interface{} `json:"is_relevant"`
		Reason     string      `json:"reason"`
	}
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return Relevance{IsRelevant: true, Reason: "Error during relevance check"}
	}

	reason := raw.Reason
	if reason == "" {
		reason = "No reason provided"
	}

	// Only an explicit false rejects the pair
	isRelevant := true
	if b, ok := raw.IsRelevant.(bool); ok {
		isRelevant = b
	}

	return Relevance{IsRelevant: isRelevant, Reason: reason}
}

// Classify sends the statement/vote/bill context to the reasoning service
// and normalizes the reply. A failed call yields a terminal fallback record
// (nuanced, confidence 1, requires review) that IS persisted — "we tried and
// don't know" is a different outcome than a relevance rejection.
func (c *Classifier) Classify(ctx context.Context, stmt model.Statement, vote model.Vote, bill model.Bill) model.Classification {
	reply, err := c.client.CompleteJSON(ctx, llm.Request{
		System:      classifierSystem,
		Prompt:      buildClassifyPrompt(stmt, vote, bill),
		Temperature: 0.1,
	})
	if err != nil {
		if c.verbose {
			fmt.Fprintf(os.Stderr, "classification failed: %v\n", err)
		}
		return fallbackClassification(err)
	}

	var raw struct {
		StatementSummary string      `json:"statement_summary"`
		VoteSummary      string      `json:"vote_summary"`
		DiscrepancyType  string      `json:"discrepancy_type"`
		ConfidenceScore  interface{} `json:"confidence_score"`
		Explanation      string      `json:"explanation"`
		RequiresReview   bool        `json:"requires_review"`
	}
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return fallbackClassification(fmt.Errorf("parse reply: %w", err))
	}

	rawConfidence, numeric := parseConfidence(raw.ConfidenceScore)

	// requires_review compares the raw, pre-clamp confidence against 3; a
	// non-numeric value fails the comparison and leaves only the reported
	// flag. Confidence itself is clamped independently below.
	requiresReview := raw.RequiresReview || (numeric && rawConfidence < 3)

	confidence := rawConfidence
	if !numeric || confidence < 1 || confidence > 5 {
		confidence = 1
	}

	return model.Classification{
		StatementSummary: orDefault(raw.StatementSummary, "No summary available"),
		VoteSummary:      orDefault(raw.VoteSummary, "No summary available"),
		Type:             normalizeType(raw.DiscrepancyType),
		Confidence:       confidence,
		Explanation:      orDefault(raw.Explanation, "No explanation provided"),
		RequiresReview:   requiresReview,
	}
}

// AnalyzePair runs the relevance oracle followed by classification. A nil
// result with no error means the oracle rejected the pair: nothing should be
// persisted for it.
func (c *Classifier) AnalyzePair(ctx context.Context, stmt model.Statement, vote model.Vote, bill model.Bill) (*model.Classification, Relevance) {
	relevance := c.CheckRelevance(ctx, stmt, bill)
	if !relevance.IsRelevant {
		return nil, relevance
	}

	classification := c.Classify(ctx, stmt, vote, bill)
	return &classification, relevance
}

// fallbackClassification is the persisted terminal record for a failed
// classification call.
func fallbackClassification(cause error) model.Classification {
	return model.Classification{
		StatementSummary: "Analysis failed",
		VoteSummary:      "Analysis failed",
		Type:             model.TypeNuanced,
		Confidence:       1,
		Explanation:      fmt.Sprintf("Error during analysis: %v", cause),
		RequiresReview:   true,
	}
}

// normalizeType lower-cases and checks the reply type against the enum;
// anything unrecognized becomes nuanced rather than being dropped.
func normalizeType(raw string) model.DiscrepancyType {
	t := model.DiscrepancyType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return model.TypeNuanced
}

// parseConfidence accepts numbers and numeric strings; the bool reports
// whether a usable number arrived at all.
func parseConfidence(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// buildRelevancePrompt mirrors the strict yes/no framing with negative
// examples, which keeps the oracle from rubber-stamping loose matches.
func buildRelevancePrompt(stmt model.Statement, bill model.Bill) string {
	summary := bill.Summary
	if summary == "" {
		summary = "No summary available"
	}

	return fmt.Sprintf(`You are a relevance checker. Determine if this statement is DIRECTLY related to the given bill.

## Statement:
%s

## Bill:
%s - %s
%s

## Task:
Determine if the statement discusses the same topic/policy area as the bill.
- "relevant": The statement directly discusses the bill's topic or policy area
- "not_relevant": The statement is about a completely different topic

Respond ONLY with valid JSON:
{
  "is_relevant": true or false,
  "reason": "Brief explanation of why it is or isn't relevant"
}

Examples of NOT relevant:
- Statement about dairy nutrition vs AI transparency bill
- Statement about healthcare vs housing bill
- Statement about immigration vs education bill

Be strict - only mark as relevant if they discuss the SAME policy area.`,
		stmt.Content, bill.Number, bill.Title, summary)
}

// buildClassifyPrompt lays out the statement, the vote with its procedural
// context, and step-by-step analysis instructions.
func buildClassifyPrompt(stmt model.Statement, vote model.Vote, bill model.Bill) string {
	summary := bill.Summary
	if summary == "" {
		summary = "No summary available"
	}

	return fmt.Sprintf(`
## Political Statement
<statement>
%s
</statement>

<statement_metadata>
- Speaker: Legislator
- Date: %s
- Source: %s
</statement_metadata>

## Voting Record
<vote>
- Bill: %s - %s
- Vote: %s (%s)
- Date: %s
- Bill Summary: %s
</vote>

## Analysis Instructions
1. **Extract Core Claim**: What specific policy position does the statement imply?
2. **Analyze Vote Context**: Was this a final passage vote or procedural? Were there amendments?
3. **Compare Positions**: Does the vote align with or contradict the stated position?
4. **Assess Discrepancy**: Determine if this is CONSISTENT, NUANCED (context explains it), or CONTRADICTORY
5. **Confidence Level**: Rate 1-5 based on available context and clarity

Respond in JSON format with these fields:
- statement_summary: Brief summary of what the statement claims
- vote_summary: Brief summary of what the vote represents
- discrepancy_type: "consistent", "nuanced", or "contradictory"
- confidence_score: Integer 1-5 (5 = very confident)
- explanation: Detailed explanation of your analysis
- requires_review: Boolean, true if confidence < 3 or context is unclear
`,
		stmt.Content,
		orDefault(stmt.PublishedDate, "Unknown"),
		orDefault(stmt.SourceName, "Unknown"),
		bill.Number, bill.Title,
		strings.ToUpper(string(vote.Choice)), orDefault(vote.VoteType, "floor"),
		orDefault(vote.VoteDate, "Unknown"),
		summary)
}
