// Package match decides which (statement, vote) pairs are worth an expensive
// classification call. The tiered filter is deliberately permissive: false
// positives are cheap because the relevance oracle catches them, but a false
// negative silently drops evidence.
package match

import (
	"strings"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

// Match reasons, one per tier.
const (
	ReasonBillMention     = "bill_mention"
	ReasonPolicyArea      = "policy_area"
	ReasonTopicOverlap    = "topic_overlap"
	ReasonKeywordMatch    = "keyword_match"
	ReasonKeywordFallback = "keyword_fallback"
	ReasonNoMatch         = "no_match"
)

// Result is the filter's decision for one (statement, bill) pair.
type Result struct {
	Matches    bool
	Reason     string
	Confidence float64
}

// Filter applies the tiered match policy. First tier to match wins.
type Filter struct {
	fallbackKeywords map[string][]string // bill ID -> raw-text keywords
}

// defaultFallbackKeywords seeds the raw-text fallback for bills whose topic
// lists are too thin to match statements that never got enriched.
var defaultFallbackKeywords = map[string][]string{
	"ca-AB853":  {"transparency", "AI", "artificial intelligence", "accountability", "consumer protection"},
	"ca-SB53":   {"AI safety", "artificial intelligence", "safety", "testing", "secure"},
	"ca-SB1047": {"AI safety", "artificial intelligence", "safety", "innovation", "whistleblower"},
	"ca-AB2013": {"transparency", "data", "training data", "privacy", "disclosure"},
	"ca-AB2930": {"automated", "employment", "worker", "labor", "decision"},
}

// NewFilter creates a filter with the default fallback keyword lists
func NewFilter() *Filter {
	fallback := make(map[string][]string, len(defaultFallbackKeywords))
	for id, kws := range defaultFallbackKeywords {
		fallback[id] = append([]string(nil), kws...)
	}
	return &Filter{fallbackKeywords: fallback}
}

// SetFallbackKeywords overrides the raw-text fallback list for a bill
func (f *Filter) SetFallbackKeywords(billID string, keywords []string) {
	f.fallbackKeywords[billID] = keywords
}

// Match decides whether a statement/bill pair should be classified.
// Tier order is strict:
//  1. bill number mentioned in the statement text
//  2. statement policy area contained in the bill title or summary
//  3. topic overlap between statement and bill
//  4. two or more statement keywords in the bill title/summary
//
// Statements with no enriched topics fall back to a keyword list keyed by
// bill id (or derived from the bill's own topics) checked against the raw
// statement text.
func (f *Filter) Match(stmt model.Statement, bill model.Bill) Result {
	content := strings.ToLower(stmt.Content)
	title := strings.ToLower(bill.Title)
	summary := strings.ToLower(bill.Summary)

	// Tier 1: explicit bill-number mention, with or without the separator
	number := strings.ToLower(bill.Number)
	bare := strings.ReplaceAll(number, "-", "")
	if number != "" && (strings.Contains(content, number) || strings.Contains(content, bare)) {
		return Result{Matches: true, Reason: ReasonBillMention, Confidence: 1.0}
	}

	// Tier 2: policy-area containment in the bill title or summary
	if area := strings.ToLower(strings.TrimSpace(stmt.PolicyArea)); area != "" {
		if strings.Contains(title, area) || strings.Contains(summary, area) {
			return Result{Matches: true, Reason: ReasonPolicyArea, Confidence: 0.9}
		}
	}

	// Tier 3: topic overlap, substring either direction
	if len(stmt.Topics) > 0 {
		for _, st := range stmt.Topics {
			s := strings.ToLower(st)
			for _, bt := range bill.Topics {
				b := strings.ToLower(bt)
				if s == b || strings.Contains(s, b) || strings.Contains(b, s) {
					return Result{Matches: true, Reason: ReasonTopicOverlap, Confidence: 0.8}
				}
			}
		}
	}

	// Tier 4: at least two statement keywords in the bill text
	keywordHits := 0
	for _, kw := range stmt.Keywords {
		k := strings.ToLower(kw)
		if k == "" {
			continue
		}
		if strings.Contains(title, k) || strings.Contains(summary, k) {
			keywordHits++
		}
	}
	if keywordHits >= 2 {
		return Result{Matches: true, Reason: ReasonKeywordMatch, Confidence: 0.7}
	}

	// Raw-text fallback for statements that never got enriched topics
	if len(stmt.Topics) == 0 {
		keywords := f.fallbackKeywords[bill.ID]
		if len(keywords) == 0 {
			keywords = bill.Topics
		}
		for _, kw := range keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(kw)) {
				return Result{Matches: true, Reason: ReasonKeywordFallback, Confidence: 0.6}
			}
		}
	}

	return Result{Reason: ReasonNoMatch}
}
