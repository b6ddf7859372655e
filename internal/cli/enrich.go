package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zavosh/ClearVote2.0/internal/pipeline"
	"github.com/Zavosh/ClearVote2.0/internal/semantic"
	"github.com/Zavosh/ClearVote2.0/internal/worker"
)

// enrichCmd runs only the semantic-enrichment stage
var enrichCmd = &cobra.Command{
	Use:   "enrich <subject name>",
	Short: "Enrich stored statements with semantic metadata",
	Long: `Run only the semantic-enrichment stage: statements without metadata are
sent to the reasoning service in batches and the results persisted.

Statements from a failed batch stay pending and are retried on the next
run. Already-enriched statements are never re-sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		client, err := newLLMClient(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		subject, err := resolveSubject(st, args[0], false)
		if err != nil {
			return err
		}

		pending, err := st.PendingEnrichment(subject.ID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("No statements pending enrichment.")
			return nil
		}
		fmt.Fprintf(os.Stderr, "Enriching %d pending statements for %s\n", len(pending), subject.Name)

		enricher := semantic.NewEnricher(client, cfg.Analysis.BatchSize,
			worker.NewPacer(cfg.Analysis.BatchDelay), cfg.Output.Verbose)

		p := pipeline.New(pipeline.Options{
			Enricher: enricher,
			Store:    st,
			Verbose:  cfg.Output.Verbose,
		})

		report := &pipeline.Report{Subject: subject.Name}
		if err := p.EnrichStatements(ctx, *subject, report); err != nil {
			return err
		}

		fmt.Printf("Enriched %d of %d statements.\n", report.Enriched, len(pending))
		if report.Enriched < len(pending) {
			fmt.Println("Failed statements stay pending; rerun to retry.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
