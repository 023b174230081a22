package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/category"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/search"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Load, chunk and index a document corpus",
	Long: `Load every matching document under path (default corpus.data_path), split it
at headings and store the snapshot in .docrag/ within the workspace directory.
Each run replaces the previous snapshot.

Examples:
  docrag index                 # Index the configured data path
  docrag index ./kb            # Index a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	path := corpusPath(arg)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	log := GetLogger()
	workspace := GetRootDir()

	if err := config.EnsureDataDir(workspace); err != nil {
		return fmt.Errorf("failed to create .docrag directory: %w", err)
	}

	dbPath := config.IndexDBPath(workspace)
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	defer st.Close()

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}
	if migration.NeedsRebuild && migration.OldVersion != 0 {
		fmt.Printf("Rebuilding corpus: %s\n", migration.Reason)
	}

	idx, err := search.Open(config.SearchIndexPath(workspace))
	if err != nil {
		return err
	}
	defer idx.Close()

	loader := usecase.NewDocumentLoader(
		fs.NewWalker(cfg.Corpus.Includes, cfg.Corpus.Excludes, fs.WithLogger(log)),
		fs.Reader{},
		category.NewClassifier(cfg.Categories),
		cfg.Corpus.Workers,
		log,
	)
	chunks := usecase.NewChunkUseCase(
		chunker.NewHeadingChunker(cfg.Chunking.MaxHeadingDepth, chunker.WithLogger(log)),
		log,
	)
	ingest := usecase.NewIngestUseCase(loader, chunks, st, idx, log)

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	last := 0

	progress := func(processed, total int, _ string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Loading[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		// Callbacks from parallel reads may arrive out of order.
		if processed <= last {
			return
		}
		last = processed
		bar.Set(processed)

		elapsed := time.Since(startTime)
		rate := float64(processed) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-processed)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Loading[reset] ETA: %s", formatDuration(eta)))
		}
	}

	result, err := ingest.Run(cmd.Context(), path, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := st.MarkCurrent(cfg); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Documents loaded:  %d\n", result.Stats.TotalDocuments)
	fmt.Printf("  Files skipped:     %d\n", len(result.Failures))
	fmt.Printf("  Chunks created:    %d\n", result.Stats.TotalChunks)
	fmt.Printf("  Kept whole:        %d\n", len(result.Fallbacks))
	fmt.Printf("  Chunks indexed:    %d\n", result.Indexed)
	fmt.Printf("  Avg chunk size:    %.1f\n", result.Stats.AverageChunkSize)

	if len(result.Failures) > 0 {
		fmt.Printf("\nSkipped files:\n")
		for _, f := range result.Failures {
			fmt.Printf("  - %s: %s\n", f.Path, f.Reason)
		}
	}

	fmt.Printf("\nSnapshot stored at: %s\n", dbPath)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
