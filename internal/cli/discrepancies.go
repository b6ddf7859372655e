package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zavosh/ClearVote2.0/internal/model"
)

var (
	discrepancyType   string
	discrepancyReview bool
	discrepancyJSON   bool
)

// discrepanciesCmd lists persisted analysis results
var discrepanciesCmd = &cobra.Command{
	Use:   "discrepancies <subject name>",
	Short: "List analyzed statement/vote pairs for a legislator",
	Long: `List persisted analysis results for a legislator.

Each record is one analyzed (statement, vote) pair with its classification,
confidence, and explanation. Records flagged for review include failed
analyses and low-confidence results.

Examples:
  clearvote discrepancies "Jane Smith"
  clearvote discrepancies "Jane Smith" --type contradictory
  clearvote discrepancies "Jane Smith" --review --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		subject, err := resolveSubject(st, args[0], false)
		if err != nil {
			return err
		}

		all, err := st.ListDiscrepancies(subject.ID)
		if err != nil {
			return err
		}

		wantType := model.DiscrepancyType(strings.ToLower(discrepancyType))
		if discrepancyType != "" && !wantType.Valid() {
			return fmt.Errorf("invalid --type %q (want consistent, nuanced, or contradictory)", discrepancyType)
		}

		var filtered []model.Discrepancy
		for _, d := range all {
			if discrepancyType != "" && d.Type != wantType {
				continue
			}
			if discrepancyReview && !d.RequiresReview {
				continue
			}
			filtered = append(filtered, d)
		}

		if discrepancyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(filtered)
		}

		if len(filtered) == 0 {
			fmt.Println("No matching records.")
			return nil
		}

		counts := map[model.DiscrepancyType]int{}
		for _, d := range filtered {
			counts[d.Type]++
			renderDiscrepancy(d)
		}

		fmt.Printf("%d records: %d consistent, %d nuanced, %d contradictory\n",
			len(filtered), counts[model.TypeConsistent], counts[model.TypeNuanced], counts[model.TypeContradictory])
		return nil
	},
}

// renderDiscrepancy prints one record in a compact human-readable block.
func renderDiscrepancy(d model.Discrepancy) {
	flag := ""
	if d.RequiresReview {
		flag = "  [needs review]"
	}

	fmt.Printf("#%d  %s  bill=%s  confidence=%d/5%s\n", d.ID, strings.ToUpper(string(d.Type)), d.BillID, d.Confidence, flag)
	if d.StatementSummary != "" {
		fmt.Printf("  statement: %s\n", d.StatementSummary)
	}
	if d.VoteSummary != "" {
		fmt.Printf("  vote:      %s\n", d.VoteSummary)
	}
	if d.Explanation != "" {
		fmt.Printf("  %s\n", d.Explanation)
	}
	fmt.Println()
}

func init() {
	discrepanciesCmd.Flags().StringVar(&discrepancyType, "type", "", "filter by type: consistent, nuanced, contradictory")
	discrepanciesCmd.Flags().BoolVar(&discrepancyReview, "review", false, "show only records flagged for review")
	discrepanciesCmd.Flags().BoolVar(&discrepancyJSON, "json", false, "output records as JSON")

	rootCmd.AddCommand(discrepanciesCmd)
}
