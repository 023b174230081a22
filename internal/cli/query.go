package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/cache"
	"docrag/internal/adapter/search"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

var (
	queryText     string
	queryTopK     int
	queryCategory string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find the documents most relevant to a query",
	Long: `Search the chunk index and resolve the matching chunks to their source
documents, ordered by how many of their chunks matched.

Examples:
  docrag query -q "redis persistence"
  docrag query -q "index" --category MySQL --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	queryCmd.Flags().StringVarP(&queryCategory, "category", "c", "", "only search documents of this category")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

const searchCacheSize = 256

// queryResult is the JSON form of one resolved document.
type queryResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Source    string `json:"source"`
	Relevance int    `json:"relevance"`
}

// newAnswerUseCase wires the search index and corpus snapshot of the
// workspace. It also returns the statistics stored with the snapshot. The
// returned closer releases the index.
func newAnswerUseCase(gen port.Generator) (*usecase.AnswerUseCase, domain.Statistics, func() error, error) {
	corpus, stats, err := loadCorpus()
	if err != nil {
		return nil, stats, nil, err
	}

	indexPath := config.SearchIndexPath(GetRootDir())
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil, stats, nil, errNoSnapshot
	}
	idx, err := search.Open(indexPath)
	if err != nil {
		return nil, stats, nil, err
	}

	cached := cache.NewCachedIndex(idx, cache.NewSearchCache(searchCacheSize, 10*time.Minute))

	cfg := GetConfig()
	uc := usecase.NewAnswerUseCase(cached, gen, corpus.Documents,
		cfg.Retrieve.TopK, cfg.Generation.MaxContextChars, GetLogger())
	return uc, stats, cached.Close, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	uc, _, closeIndex, err := newAnswerUseCase(nil)
	if err != nil {
		return err
	}
	defer closeIndex()

	r, err := uc.Retrieve(queryText, queryTopK, domain.SearchFilter{Category: queryCategory})
	if err != nil {
		return err
	}

	if queryJSON {
		results := make([]queryResult, len(r.Parents))
		for i, p := range r.Parents {
			results[i] = queryResult{
				ID:        p.Document.ID,
				Title:     p.Document.Title,
				Category:  p.Document.Category,
				Source:    p.Document.Source,
				Relevance: p.Relevance,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(r.Parents) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d documents (%d chunks) for: %s\n\n", len(r.Parents), len(r.Chunks), queryText)
	for i, p := range r.Parents {
		fmt.Printf("--- [%d] %s | %s (relevance: %d) ---\n", i+1, p.Document.Title, p.Document.Category, p.Relevance)
		fmt.Printf("%s (id %s)\n", p.Document.Source, p.Document.ID)
		fmt.Println(truncate(p.Document.Content, 300))
		fmt.Println()
	}
	return nil
}

// truncate shortens s to at most n runes for display.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
