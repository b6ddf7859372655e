package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Zavosh/ClearVote2.0/internal/model"
	"github.com/Zavosh/ClearVote2.0/internal/pipeline"
)

var (
	analyzeCreate      bool
	analyzeMaxArticles int
	analyzeSkipCollect bool
)

// analyzeCmd runs the full pipeline for one legislator
var analyzeCmd = &cobra.Command{
	Use:   "analyze <subject name>",
	Short: "Run the full discrepancy analysis for a legislator",
	Long: `Run the complete pipeline for one legislator:

1. Search recent news and scrape article text
2. Extract attributable statements
3. Enrich statements with semantic metadata
4. Filter statement/vote pairs worth analyzing
5. Classify each pair as consistent, nuanced, or contradictory

Runs are idempotent: statements and analyzed pairs persist across runs, and
an interrupted run resumes where it left off.

Examples:
  clearvote analyze "Jane Smith"
  clearvote analyze "Jane Smith" --max-articles 5 -v
  clearvote analyze "Jane Smith" --skip-collect   # re-analyze stored data only`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if analyzeMaxArticles > 0 {
			cfg.News.MaxArticles = analyzeMaxArticles
		}

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

		if !client.IsAvailable(ctx) {
			return fmt.Errorf("%s provider is not available (check credentials and endpoint)", client.Name())
		}

		subject, err := resolveSubject(st, args[0], analyzeCreate)
		if err != nil {
			return err
		}

		votes, err := st.ListVotes(subject.ID)
		if err != nil {
			return err
		}
		if len(votes) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no votes recorded for %s; run 'clearvote seed' first\n", subject.Name)
		}

		p := buildPipeline(cfg, st, client)

		var report *pipeline.Report
		if analyzeSkipCollect {
			report, err = runStoredOnly(ctx, p, *subject)
		} else {
			report, err = p.Run(ctx, *subject)
		}
		if report != nil {
			fmt.Println()
			report.RenderSummary()
		}
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "\nInterrupted; progress is saved and the next run resumes here.")
				return nil
			}
			return err
		}

		return nil
	},
}

// runStoredOnly re-runs enrichment and analysis over already-stored
// statements without touching the network for news.
func runStoredOnly(ctx context.Context, p *pipeline.Pipeline, subject model.Subject) (*pipeline.Report, error) {
	report := &pipeline.Report{Subject: subject.Name}
	if err := p.EnrichStatements(ctx, subject, report); err != nil {
		return report, err
	}
	if err := p.AnalyzePairs(ctx, subject, report); err != nil {
		return report, err
	}
	return report, nil
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeCreate, "create", false, "create the subject if it does not exist")
	analyzeCmd.Flags().IntVar(&analyzeMaxArticles, "max-articles", 0, "max articles to scrape (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeSkipCollect, "skip-collect", false, "skip news collection; enrich and analyze stored statements only")

	rootCmd.AddCommand(analyzeCmd)
}
