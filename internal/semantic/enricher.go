// Package semantic attaches durable metadata (policy area, topics, keywords,
// positions) to statements via batched reasoning-service calls, so later
// matching never has to re-analyze a statement.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Zavosh/ClearVote2.0/internal/llm"
	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/worker"
)

// maxBatchSize bounds statements per enrichment call, keeping prompt size
// tractable while amortizing per-call cost.
const maxBatchSize = 4

const systemPrompt = "You are a political analyst specializing in semantic analysis of political statements."

// Enricher batches statements through the reasoning service.
type Enricher struct {
	client  llm.Client
	batch   int
	pacer   *worker.Pacer
	verbose bool
}

// NewEnricher creates a new enricher. The pacer spaces out batch calls to
// respect provider rate limits; nil disables pacing.
func NewEnricher(client llm.Client, batchSize int, pacer *worker.Pacer, verbose bool) *Enricher {
	if batchSize <= 0 || batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}
	return &Enricher{
		client:  client,
		batch:   batchSize,
		pacer:   pacer,
		verbose: verbose,
	}
}

// EnrichAll processes statements in batches. Statements that already carry
// metadata are excluded: enrichment is satisfied once. A failed batch yields
// empty-but-valid records flagged success=false and never blocks the
// batches after it.
func (e *Enricher) EnrichAll(ctx context.Context, statements []model.Statement) []model.Metadata {
	var pending []model.Statement
	for _, stmt := range statements {
		if !stmt.Enriched {
			pending = append(pending, stmt)
		}
	}

	var results []model.Metadata
	for i := 0; i < len(pending); i += e.batch {
		end := i + e.batch
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[i:end]

		if i > 0 && e.pacer != nil {
			if err := e.pacer.Wait(ctx); err != nil {
				for _, stmt := range batch {
					results = append(results, model.EmptyMetadata(stmt.ID, false))
				}
				continue
			}
		}

		if e.verbose {
			fmt.Fprintf(os.Stderr, "enriching batch of %d statements\n", len(batch))
		}

		results = append(results, e.EnrichBatch(ctx, batch)...)
	}

	return results
}

// EnrichBatch analyzes up to four statements in a single reasoning call.
// Results are matched back by the statement id carried through the round
// trip; a statement missing from the reply gets an empty record.
func (e *Enricher) EnrichBatch(ctx context.Context, batch []model.Statement) []model.Metadata {
	if len(batch) == 0 {
		return nil
	}

	reply, err := e.client.CompleteJSON(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildBatchPrompt(batch),
		Temperature: 0.2,
	})
	if err != nil {
		if e.verbose {
			fmt.Fprintf(os.Stderr, "enrichment call failed: %v\n", err)
		}
		return failedBatch(batch)
	}

	records, err := parseBatchReply(reply)
	if err != nil {
		if e.verbose {
			fmt.Fprintf(os.Stderr, "enrichment parse failed: %v\n", err)
		}
		return failedBatch(batch)
	}

	results := make([]model.Metadata, 0, len(batch))
	for _, stmt := range batch {
		md, found := records[stmt.ID]
		if !found {
			md = model.EmptyMetadata(stmt.ID, true)
		}
		md.StatementID = stmt.ID
		md.Success = true
		results = append(results, md)
	}
	return results
}

// failedBatch returns empty-but-valid records for every statement in a
// batch whose call or parse failed.
func failedBatch(batch []model.Statement) []model.Metadata {
	results := make([]model.Metadata, 0, len(batch))
	for _, stmt := range batch {
		results = append(results, model.EmptyMetadata(stmt.ID, false))
	}
	return results
}

// buildBatchPrompt lays out each statement with its id and asks for a JSON
// array keyed by statement_id.
func buildBatchPrompt(batch []model.Statement) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Analyze these %d political statements and extract semantic metadata for EACH one.

For each statement, extract:
1. Policy Area: main policy domain (single phrase)
2. Topics: specific topics mentioned
3. Keywords: important keywords and phrases
4. Positions: what stances does the speaker take?

`, len(batch))

	for i, stmt := range batch {
		fmt.Fprintf(&b, "## Statement %d (ID: %d)\n%q\n\n", i+1, stmt.ID, stmt.Content)
	}

	fmt.Fprintf(&b, `Respond in JSON format:
{
  "results": [
    {
      "statement_id": %d,
      "policy_area": "main policy domain",
      "topics": ["topic1", "topic2"],
      "keywords": ["keyword1", "keyword2", "keyword3"],
      "positions": ["position1", "position2"]
    }
  ]
}
Include one object for each statement with its statement_id.`, batch[0].ID)

	return b.String()
}

// parseBatchReply coerces the reply into per-statement records. The reply is
// untrusted: the array may arrive bare or under a wrapper key, ids may be
// numbers or strings, and any field may be missing or mistyped.
func parseBatchReply(reply string) (map[int64]model.Metadata, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(reply), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}

	items, ok := payload.([]interface{})
	if !ok {
		obj, isObj := payload.(map[string]interface{})
		if !isObj {
			return nil, fmt.Errorf("unexpected reply shape")
		}
		for _, key := range []string{"results", "statements", "items"} {
			if arr, found := obj[key].([]interface{}); found {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("no result array in reply")
		}
	}

	records := make(map[int64]model.Metadata)
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := coerceID(obj["statement_id"])
		if !ok {
			continue
		}
		records[id] = model.Metadata{
			StatementID: id,
			PolicyArea:  coerceString(obj["policy_area"]),
			Topics:      coerceStringSlice(obj["topics"]),
			Keywords:    coerceStringSlice(obj["keywords"]),
			Positions:   coerceStringSlice(obj["positions"]),
			Success:     true,
		}
	}

	return records, nil
}

// coerceID accepts ids delivered as JSON numbers or strings.
func coerceID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func coerceString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceStringSlice(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
