// Package pipeline orchestrates the discrepancy-detection run: news search,
// statement extraction, semantic enrichment, candidate filtering,
// classification, and idempotent persistence.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/Zavosh/ClearVote2.0/internal/analysis"
	"github.com/Zavosh/ClearVote2.0/internal/match"
	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/news"
	"github.com/Zavosh/ClearVote2.0/internal/semantic"
	"github.com/Zavosh/ClearVote2.0/internal/store"
	"github.com/Zavosh/ClearVote2.0/internal/worker"
)

// Pipeline wires the components together. It runs single-threaded and
// sequential by design: one pair at a time, with pacing between external
// calls, which keeps the store's check-then-insert sequence race-free in
// practice.
type Pipeline struct {
	searcher   news.Searcher
	scraper    *news.Scraper
	extractor  *news.QuoteExtractor
	enricher   *semantic.Enricher
	filter     *match.Filter
	classifier *analysis.Classifier
	store      *store.Store
	pacer      *worker.Pacer // Between classification calls
	maxArticle int
	verbose    bool
}

// Options collects the pipeline's collaborators. Every external-call
// dependency is passed in so tests can substitute doubles.
type Options struct {
	Searcher    news.Searcher
	Scraper     *news.Scraper
	Enricher    *semantic.Enricher
	Classifier  *analysis.Classifier
	Store       *store.Store
	Pacer       *worker.Pacer
	MaxArticles int
	Verbose     bool
}

// New creates a pipeline from its collaborators
func New(opts Options) *Pipeline {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 10
	}
	return &Pipeline{
		searcher:   opts.Searcher,
		scraper:    opts.Scraper,
		extractor:  news.NewQuoteExtractor(),
		enricher:   opts.Enricher,
		filter:     match.NewFilter(),
		classifier: opts.Classifier,
		store:      opts.Store,
		pacer:      opts.Pacer,
		maxArticle: opts.MaxArticles,
		verbose:    opts.Verbose,
	}
}

// Report summarizes one pipeline run for the operator.
type Report struct {
	Subject       string
	Articles      int // Unique articles considered
	NewStatements int // Statements written this run
	Enriched      int // Statements enriched this run
	Analyzed      int // Pairs classified and persisted
	Skipped       int // Pairs the tiered filter never sent to the classifier
	Rejected      int // Pairs the relevance oracle explicitly rejected
	Duplicates    int // Pairs already persisted by an earlier run
	Failures      int // Persisted fallback records from failed calls
}

// CollectStatements searches for news about the subject, scrapes article
// text, extracts attributable statements, and persists the new ones.
// Search and scrape failures degrade to partial data; they never abort the
// run.
func (p *Pipeline) CollectStatements(ctx context.Context, subject model.Subject, report *Report) error {
	articles, err := p.searcher.Search(ctx, subject.Name)
	if err != nil {
		return fmt.Errorf("search news: %w", err)
	}

	if len(articles) > p.maxArticle {
		articles = articles[:p.maxArticle]
	}
	report.Articles = len(articles)

	if p.scraper != nil {
		articles = p.scraper.EnrichArticles(ctx, articles)
	}

	for _, stmt := range p.extractor.ProcessArticles(articles, subject) {
		inserted, err := p.store.SaveStatement(&stmt)
		if err != nil {
			return fmt.Errorf("save statement: %w", err)
		}
		if inserted {
			report.NewStatements++
		}
	}

	if p.verbose {
		fmt.Fprintf(os.Stderr, "collected %d new statements from %d articles\n",
			report.NewStatements, report.Articles)
	}

	return nil
}

// EnrichStatements runs pending statements through the semantic enricher
// and applies the results. Failed batches leave their statements pending
// for the next run.
func (p *Pipeline) EnrichStatements(ctx context.Context, subject model.Subject, report *Report) error {
	pending, err := p.store.PendingEnrichment(subject.ID)
	if err != nil {
		return fmt.Errorf("load pending statements: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	for _, md := range p.enricher.EnrichAll(ctx, pending) {
		if err := p.store.ApplyMetadata(md); err != nil {
			return fmt.Errorf("apply metadata: %w", err)
		}
		if md.Success {
			report.Enriched++
		}
	}

	if p.verbose {
		fmt.Fprintf(os.Stderr, "enriched %d of %d pending statements\n",
			report.Enriched, len(pending))
	}

	return nil
}

// AnalyzePairs walks every (statement, vote) pair for the subject. The
// existence check makes re-runs a no-op for already-processed pairs; the
// tiered filter and the relevance oracle bound classifier cost; a single
// pair's failure never aborts the pairs after it.
func (p *Pipeline) AnalyzePairs(ctx context.Context, subject model.Subject, report *Report) error {
	statements, err := p.store.ListStatements(subject.ID)
	if err != nil {
		return fmt.Errorf("load statements: %w", err)
	}
	votes, err := p.store.ListVotes(subject.ID)
	if err != nil {
		return fmt.Errorf("load votes: %w", err)
	}

	bills := make(map[string]*model.Bill)

	for _, stmt := range statements {
		for _, vote := range votes {
			if err := ctx.Err(); err != nil {
				return err
			}

			exists, err := p.store.HasDiscrepancy(stmt.ID, vote.ID)
			if err != nil {
				return fmt.Errorf("check pair: %w", err)
			}
			if exists {
				report.Duplicates++
				continue
			}

			bill, ok := bills[vote.BillID]
			if !ok {
				bill, err = p.store.GetBill(vote.BillID)
				if err != nil {
					return fmt.Errorf("load bill %s: %w", vote.BillID, err)
				}
				bills[vote.BillID] = bill
			}
			if bill == nil {
				continue // Vote references a bill the catalog never supplied
			}

			result := p.filter.Match(stmt, *bill)
			if !result.Matches {
				report.Skipped++
				continue
			}

			if p.verbose {
				fmt.Fprintf(os.Stderr, "analyzing statement %d vs vote %d (%s, %.1f)\n",
					stmt.ID, vote.ID, result.Reason, result.Confidence)
			}

			if err := p.pacer.Wait(ctx); err != nil {
				return err
			}

			classification, relevance := p.classifier.AnalyzePair(ctx, stmt, vote, *bill)
			if classification == nil {
				// Explicit oracle rejection: nothing is persisted
				if p.verbose {
					fmt.Fprintf(os.Stderr, "rejected: %s\n", relevance.Reason)
				}
				report.Rejected++
				continue
			}

			discrepancy := model.Discrepancy{
				SubjectID:        subject.ID,
				StatementID:      stmt.ID,
				BillID:           bill.ID,
				VoteID:           vote.ID,
				Type:             classification.Type,
				Confidence:       classification.Confidence,
				Explanation:      classification.Explanation,
				StatementSummary: classification.StatementSummary,
				VoteSummary:      classification.VoteSummary,
				RequiresReview:   classification.RequiresReview,
			}
			if err := p.store.SaveDiscrepancy(&discrepancy); err != nil {
				return fmt.Errorf("save discrepancy: %w", err)
			}

			report.Analyzed++
			if classification.StatementSummary == "Analysis failed" {
				report.Failures++
			}
		}
	}

	return nil
}

// Run executes the full pipeline for a subject: collect, enrich, analyze.
func (p *Pipeline) Run(ctx context.Context, subject model.Subject) (*Report, error) {
	report := &Report{Subject: subject.Name}

	if err := p.CollectStatements(ctx, subject, report); err != nil {
		return report, err
	}
	if err := p.EnrichStatements(ctx, subject, report); err != nil {
		return report, err
	}
	if err := p.AnalyzePairs(ctx, subject, report); err != nil {
		return report, err
	}

	return report, nil
}

// RenderSummary prints the run report in a compact operator-facing form.
func (r *Report) RenderSummary() {
	fmt.Printf("Subject:        %s\n", r.Subject)
	fmt.Printf("Articles:       %d\n", r.Articles)
	fmt.Printf("New statements: %d\n", r.NewStatements)
	fmt.Printf("Enriched:       %d\n", r.Enriched)
	fmt.Printf("Analyzed:       %d\n", r.Analyzed)
	fmt.Printf("Skipped:        %d (filter)\n", r.Skipped)
	fmt.Printf("Rejected:       %d (relevance oracle)\n", r.Rejected)
	fmt.Printf("Duplicates:     %d (already analyzed)\n", r.Duplicates)
	if r.Failures > 0 {
		fmt.Printf("Failures:       %d (fallback records, need review)\n", r.Failures)
	}
}
