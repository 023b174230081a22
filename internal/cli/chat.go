package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/category"
	"docrag/internal/domain"
	"docrag/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Start an interactive session over the indexed documents.

Commands inside the session:
  help                          show the commands
  stats                         show corpus statistics
  category <label> <question>   answer from one category only
  quit, exit                    leave the session
Anything else is answered as a question.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	uc, stats, closeIndex, err := newAnswerUseCase(gen)
	if err != nil {
		return err
	}
	defer closeIndex()

	s := &chatSession{
		answers: uc,
		stats:   stats,
		labels:  chatLabels(category.NewClassifier(cfg.Categories).Labels(), stats),
		stream:  cfg.Generation.Stream,
		out:     cmd.OutOrStdout(),
	}
	return s.run(cmd.Context(), os.Stdin)
}

// chatLabels merges the configured labels with those present in the corpus.
func chatLabels(configured []string, stats domain.Statistics) []string {
	labels := append([]string(nil), configured...)
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		seen[l] = true
	}
	for l := range stats.CategoryCounts {
		if !seen[l] {
			labels = append(labels, l)
		}
	}
	return labels
}

type chatSession struct {
	answers *usecase.AnswerUseCase
	stats   domain.Statistics
	labels  []string
	stream  bool
	out     io.Writer
}

func (s *chatSession) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(s.out, "docrag chat: %d documents, %d chunks\n", s.stats.TotalDocuments, s.stats.TotalChunks)
	s.help()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return nil
		case line == "help":
			s.help()
		case line == "stats":
			printStats(s.out, s.stats)
		case strings.HasPrefix(line, "category "):
			label, question, ok := splitCategory(strings.TrimPrefix(line, "category "), s.labels)
			if !ok {
				fmt.Fprintln(s.out, "usage: category <label> <question>")
				continue
			}
			s.answer(ctx, question, domain.SearchFilter{Category: label})
		default:
			s.answer(ctx, line, domain.SearchFilter{})
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// splitCategory separates a category label from the question that follows
// it. Labels may contain spaces, so the longest known label that prefixes
// rest wins, compared case-insensitively. Unknown labels end at the first
// space.
func splitCategory(rest string, labels []string) (label, question string, ok bool) {
	rest = strings.TrimSpace(rest)
	for _, l := range labels {
		n := len(l)
		if n <= len(label) || len(rest) <= n || rest[n] != ' ' {
			continue
		}
		if strings.EqualFold(rest[:n], l) {
			label, question = l, rest[n+1:]
		}
	}
	if label == "" {
		label, question, _ = strings.Cut(rest, " ")
	}
	question = strings.TrimSpace(question)
	if label == "" || question == "" {
		return "", "", false
	}
	return label, question, true
}

func (s *chatSession) help() {
	fmt.Fprintln(s.out, "Commands: help, stats, category <label> <question>, quit. Anything else is a question.")
}

// answer prints the reply to question. Failures are reported and the session
// continues.
func (s *chatSession) answer(ctx context.Context, question string, filter domain.SearchFilter) {
	var (
		r   *usecase.Retrieval
		err error
	)
	if s.stream {
		r, err = s.answers.AnswerStream(ctx, question, filter, func(delta string) error {
			_, err := fmt.Fprint(s.out, delta)
			return err
		})
		fmt.Fprintln(s.out)
	} else {
		var text string
		text, r, err = s.answers.Answer(ctx, question, filter)
		if err == nil {
			fmt.Fprintln(s.out, text)
		}
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}

	for i, p := range r.Parents {
		fmt.Fprintf(s.out, "  [%d] %s (%s, relevance %d)\n", i+1, p.Document.Title, p.Document.Category, p.Relevance)
	}
}
