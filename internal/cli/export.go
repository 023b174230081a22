package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docrag/internal/usecase"
)

var exportCategory string

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export document metadata as JSON",
	Long: `Write one {source, title, category, content_length} record per document.
Without a file argument the JSON is written to stdout.

Examples:
  docrag export metadata.json
  docrag export --category Redis`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportCategory, "category", "c", "", "only export documents of this category")
}

func runExport(cmd *cobra.Command, args []string) error {
	corpus, _, err := loadCorpus()
	if err != nil {
		return err
	}

	docs := corpus.Documents
	if exportCategory != "" {
		docs = usecase.FilterByCategory(docs, exportCategory)
	}

	if len(args) == 0 {
		return usecase.WriteMetadata(os.Stdout, docs)
	}

	if err := usecase.ExportMetadataFile(args[0], docs); err != nil {
		return err
	}
	fmt.Printf("Exported %d documents to %s\n", len(docs), args[0])
	return nil
}
