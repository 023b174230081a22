package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docrag/internal/port"
)

var showChunk bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored document and its chunks",
	Long: `Print a document of the last snapshot with the chunks it was split into.
Document ids are printed by 'docrag query'. With --chunk the id names a single
chunk and its content is printed.

Examples:
  docrag show 5d41402abc4b2a76b9719d911017c592
  docrag show --chunk 5d41402abc4b2a76b9719d911017c592-2`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showChunk, "chunk", false, "treat the id as a chunk id")
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := openSnapshot()
	if err != nil {
		return err
	}
	defer st.Close()

	if showChunk {
		return printChunk(cmd.OutOrStdout(), st, args[0])
	}
	return printDocument(cmd.OutOrStdout(), st, args[0])
}

func printDocument(w io.Writer, st port.CorpusStore, id string) error {
	doc, err := st.Document(id)
	if err != nil {
		return err
	}
	chunks, err := st.ChunksByParent(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s | %s\n", doc.Title, doc.Category)
	fmt.Fprintf(w, "Source: %s\n", doc.Source)
	fmt.Fprintf(w, "Chunks: %d\n", len(chunks))
	for _, c := range chunks {
		heading, _, _ := strings.Cut(c.Content, "\n")
		fmt.Fprintf(w, "  [%d] %s (%d chars) %s\n", c.ChunkIndex, c.ChunkID, c.ChunkSize, truncate(heading, 60))
	}
	return nil
}

func printChunk(w io.Writer, st port.CorpusStore, id string) error {
	c, err := st.Chunk(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s | %s | chunk %d of %s\n\n", c.Title, c.Category, c.ChunkIndex, c.ParentID)
	fmt.Fprintln(w, c.Content)
	return nil
}
