package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/Zavosh/ClearVote2.0/internal/analysis"
	"github.com/Zavosh/ClearVote2.0/internal/llm"
	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/semantic"
	"github.com/Zavosh/ClearVote2.0/internal/store"
)

// fakeSearcher returns a fixed article list.
type fakeSearcher struct {
	articles []model.Article
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, subjectName string) ([]model.Article, error) {
	return f.articles, f.err
}

var promptIDRe = regexp.MustCompile(`\(ID: (\d+)\)`)

// stageClient answers each reasoning call based on which stage sent it, so
// the pipeline can run end to end without call-order scripting.
type stageClient struct {
	relevant    bool
	classifyErr error
	calls       int
}

func (c *stageClient) Name() string { return "stage" }

func (c *stageClient) IsAvailable(ctx context.Context) bool { return true }

func (c *stageClient) CompleteJSON(ctx context.Context, req llm.Request) (string, error) {
	c.calls++

	switch {
	case strings.Contains(req.System, "semantic analysis"):
		var items []string
		for _, m := range promptIDRe.FindAllStringSubmatch(req.Prompt, -1) {
			items = append(items, fmt.Sprintf(
				`{"statement_id": %s, "policy_area": "Artificial Intelligence", "topics": ["AI"], "keywords": ["innovation"], "positions": ["opposes regulation"]}`,
				m[1]))
		}
		return fmt.Sprintf(`{"results": [%s]}`, strings.Join(items, ",")), nil

	case strings.Contains(req.System, "relevance checker"):
		return fmt.Sprintf(`{"is_relevant": %v, "reason": "scripted"}`, c.relevant), nil

	default:
		if c.classifyErr != nil {
			return "", c.classifyErr
		}
		return `{
			"statement_summary": "Opposed the bill",
			"vote_summary": "Voted yes on final passage",
			"discrepancy_type": "contradictory",
			"confidence_score": 4,
			"explanation": "The vote contradicts the stated opposition.",
			"requires_review": false
		}`, nil
	}
}

func newTestPipeline(t *testing.T, client llm.Client) (*Pipeline, *store.Store, model.Subject) {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	subject := model.Subject{Name: "Jane Smith"}
	if err := st.UpsertSubject(&subject); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveBill(model.Bill{
		ID: "ca-AB853", Number: "AB-853",
		Title:   "California AI Transparency Act",
		Summary: "Requires AI developers to disclose training data.",
		Topics:  []string{"AI", "Transparency"},
	}); err != nil {
		t.Fatal(err)
	}
	vote := model.Vote{SubjectID: subject.ID, BillID: "ca-AB853", Choice: model.VoteYes, VoteType: "floor", VoteDate: "2026-05-01"}
	if err := st.SaveVote(&vote); err != nil {
		t.Fatal(err)
	}

	searcher := &fakeSearcher{articles: []model.Article{{
		Title:   "Smith criticizes AI bill",
		Content: `Smith said "I voted against AB-853 because it would stifle innovation in California."`,
		URL:     "https://example.com/a1",
		Source:  "example.com",
	}}}

	p := New(Options{
		Searcher:   searcher,
		Enricher:   semantic.NewEnricher(client, 4, nil, false),
		Classifier: analysis.NewClassifier(client, false),
		Store:      st,
	})
	return p, st, subject
}

func TestPipeline_RunIsIdempotent(t *testing.T) {
	client := &stageClient{relevant: true}
	p, st, subject := newTestPipeline(t, client)

	first, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatalf("Expected first run to succeed, got %v", err)
	}
	if first.Articles != 1 || first.NewStatements != 1 {
		t.Errorf("Expected 1 article and 1 new statement, got %+v", first)
	}
	if first.Enriched != 1 {
		t.Errorf("Expected 1 enriched statement, got %d", first.Enriched)
	}
	if first.Analyzed != 1 || first.Duplicates != 0 {
		t.Errorf("Expected 1 analyzed pair, got %+v", first)
	}

	list, err := st.ListDiscrepancies(subject.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 persisted record, got %d", len(list))
	}
	if list[0].Type != model.TypeContradictory || list[0].Confidence != 4 {
		t.Errorf("Unexpected record: %+v", list[0])
	}

	callsAfterFirst := client.calls

	second, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatalf("Expected second run to succeed, got %v", err)
	}
	if second.NewStatements != 0 {
		t.Errorf("Expected no new statements on re-run, got %d", second.NewStatements)
	}
	if second.Analyzed != 0 || second.Duplicates != 1 {
		t.Errorf("Expected re-run to skip the analyzed pair, got %+v", second)
	}

	// The re-run must not spend any reasoning calls on the settled pair
	if client.calls != callsAfterFirst {
		t.Errorf("Expected no new reasoning calls, got %d more", client.calls-callsAfterFirst)
	}

	list, err = st.ListDiscrepancies(subject.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("Expected still 1 persisted record, got %d", len(list))
	}
}

func TestPipeline_RejectedPairIsRetriedNextRun(t *testing.T) {
	client := &stageClient{relevant: false}
	p, st, subject := newTestPipeline(t, client)

	first, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatalf("Expected run to succeed, got %v", err)
	}
	if first.Rejected != 1 || first.Analyzed != 0 {
		t.Errorf("Expected 1 rejected pair, got %+v", first)
	}

	list, err := st.ListDiscrepancies(subject.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("Expected nothing persisted for a rejected pair, got %d", len(list))
	}

	// Nothing was persisted, so the pair is eligible again
	second, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatal(err)
	}
	if second.Rejected != 1 || second.Duplicates != 0 {
		t.Errorf("Expected rejection again on re-run, got %+v", second)
	}
}

func TestPipeline_FailedClassificationPersistsFallback(t *testing.T) {
	client := &stageClient{relevant: true, classifyErr: fmt.Errorf("service unavailable")}
	p, st, subject := newTestPipeline(t, client)

	report, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatalf("Expected run to succeed despite classify failure, got %v", err)
	}
	if report.Analyzed != 1 || report.Failures != 1 {
		t.Errorf("Expected 1 persisted fallback, got %+v", report)
	}

	list, err := st.ListDiscrepancies(subject.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(list))
	}
	got := list[0]
	if got.Type != model.TypeNuanced || got.Confidence != 1 || !got.RequiresReview {
		t.Errorf("Expected nuanced/1/review fallback record, got %+v", got)
	}
	if !strings.HasPrefix(got.Explanation, "Error during analysis:") {
		t.Errorf("Expected error explanation, got %q", got.Explanation)
	}

	// The fallback is terminal: re-runs treat the pair as settled
	second, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatal(err)
	}
	if second.Duplicates != 1 || second.Analyzed != 0 {
		t.Errorf("Expected fallback record to settle the pair, got %+v", second)
	}
}

func TestPipeline_SearchFailureAborts(t *testing.T) {
	client := &stageClient{relevant: true}
	p, _, subject := newTestPipeline(t, client)
	p.searcher = &fakeSearcher{err: fmt.Errorf("network down")}

	if _, err := p.Run(context.Background(), subject); err == nil {
		t.Error("Expected error when search fails entirely")
	}
}

func TestPipeline_MaxArticlesTruncates(t *testing.T) {
	client := &stageClient{relevant: true}
	p, _, subject := newTestPipeline(t, client)

	var articles []model.Article
	for i := 0; i < 15; i++ {
		articles = append(articles, model.Article{
			Title: fmt.Sprintf("Article %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	p.searcher = &fakeSearcher{articles: articles}
	p.maxArticle = 5

	report := &Report{Subject: subject.Name}
	if err := p.CollectStatements(context.Background(), subject, report); err != nil {
		t.Fatal(err)
	}
	if report.Articles != 5 {
		t.Errorf("Expected articles truncated to 5, got %d", report.Articles)
	}
}
