package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var (
	askText     string
	askCategory string
	askStream   bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the documents relevant to a question and ask the configured chat
model to answer from them. The API key is read from the variable named by
generation.api_key_env.

Examples:
  docrag ask -q "What is the difference between RDB and AOF?"
  docrag ask -q "How do covering indexes work" --category MySQL --stream`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askCategory, "category", "c", "", "only use documents of this category")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated (default from config)")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	uc, _, closeIndex, err := newAnswerUseCase(gen)
	if err != nil {
		return err
	}
	defer closeIndex()

	filter := domain.SearchFilter{Category: askCategory}
	stream := askStream || cfg.Generation.Stream

	if stream {
		r, err := uc.AnswerStream(cmd.Context(), askText, filter, func(delta string) error {
			fmt.Print(delta)
			return nil
		})
		fmt.Println()
		if err != nil {
			return err
		}
		printSources(r.Parents)
		return nil
	}

	answer, r, err := uc.Answer(cmd.Context(), askText, filter)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	printSources(r.Parents)
	return nil
}

func printSources(parents []domain.RankedParent) {
	if len(parents) == 0 {
		return
	}
	fmt.Printf("\nSources:\n")
	for i, p := range parents {
		fmt.Printf("  [%d] %s (%s)\n", i+1, p.Document.Title, p.Document.Source)
	}
}
