package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus statistics",
	Long: `Print the statistics saved with the last 'docrag index' run: document
and chunk counts, average chunk size in characters and documents per category.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := openSnapshot()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := snapshotStats(st)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(out, "Workspace: %s\n", GetRootDir())
	printStats(out, stats)
	return nil
}

// printStats writes stats with categories ordered by document count, then
// label.
func printStats(w io.Writer, stats domain.Statistics) {
	fmt.Fprintf(w, "  Documents:       %d\n", stats.TotalDocuments)
	fmt.Fprintf(w, "  Chunks:          %d\n", stats.TotalChunks)
	fmt.Fprintf(w, "  Avg chunk size:  %.1f\n", stats.AverageChunkSize)

	labels := make([]string, 0, len(stats.CategoryCounts))
	for label := range stats.CategoryCounts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := stats.CategoryCounts[labels[i]], stats.CategoryCounts[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})

	fmt.Fprintf(w, "\nDocuments per category:\n")
	for _, label := range labels {
		fmt.Fprintf(w, "  %-28s %d\n", label, stats.CategoryCounts[label])
	}
}
