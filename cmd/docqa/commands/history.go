package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docqa-ai/docqa-go/internal/logging"
)

// NewHistoryCmd constructs the `docqa history` command, which prints the
// most recent recorded answers for a corpus.
func NewHistoryCmd() *cobra.Command {
	var corpus string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent questions and answers",
		Long: `Print the most recent recorded question/answer pairs, newest first.

Answers are recorded by 'docqa ask' and the HTTP server unless history is
disabled (DOCQA_HISTORY_DB=disabled). The database lives at
~/.docqa/history.db by default; DOCQA_HISTORY_DB overrides the path.

Examples:
  docqa history
  docqa history --limit 25
  docqa history --corpus onboarding`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			hs := openHistory(log)
			if hs == nil {
				return fmt.Errorf("history: store unavailable")
			}
			defer func() { _ = hs.Close() }()

			if corpus == "" {
				corpus = corpusName()
			}

			entries, err := hs.Recent(ctx, corpus, limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintf(os.Stdout, "no recorded answers for corpus %q\n", corpus)
				return nil
			}

			for _, e := range entries {
				fmt.Fprintf(os.Stdout, "[%s] %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Question)
				fmt.Fprintf(os.Stdout, "  %s\n", e.Answer)
				if len(e.Sources) > 0 {
					fmt.Fprintf(os.Stdout, "  sources: %s\n", strings.Join(e.Sources, ", "))
				}
				fmt.Fprintln(os.Stdout)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&corpus, "corpus", "c", "", "Corpus to show history for (default: the active corpus)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of entries to show")

	return cmd
}
