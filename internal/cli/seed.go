package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zavosh/ClearVote2.0/internal/store"
)

// seedCmd loads subjects, bills, and votes from a YAML catalog
var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load subjects, bills, and votes from a YAML catalog",
	Long: `Load legislators, bills, and recorded votes from a YAML catalog file.

Subjects and bills upsert; duplicate votes are ignored, so re-seeding the
same file is safe.

Catalog format:

  subjects:
    - name: Jane Smith
      chamber: senate
      district: SD-13
      party: D
  bills:
    - id: ca-AB853
      number: AB-853
      title: California AI Transparency Act
      summary: Requires AI developers to disclose training data.
      topics: [AI, Technology, Transparency]
  votes:
    - subject: Jane Smith
      bill: ca-AB853
      choice: yes
      vote_type: floor
      vote_date: "2025-09-12"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		seed, err := store.LoadSeed(args[0])
		if err != nil {
			return err
		}

		if err := st.ApplySeed(seed); err != nil {
			return err
		}

		fmt.Printf("Seeded %d subjects, %d bills, %d votes from %s\n",
			len(seed.Subjects), len(seed.Bills), len(seed.Votes), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
