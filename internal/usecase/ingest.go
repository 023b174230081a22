package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"docrag/internal/domain"
	"docrag/internal/logging"
	"docrag/internal/port"
)

// IngestUseCase runs a full load, chunk, persist and index pass. Each run
// replaces the previous snapshot and the indexed chunks together. A failed
// run leaves both as they were, unless the final index swap itself fails.
type IngestUseCase struct {
	loader  *DocumentLoader
	chunker *ChunkUseCase
	store   port.CorpusStore
	index   port.ChunkIndex
	logger  *slog.Logger
}

func NewIngestUseCase(
	loader *DocumentLoader,
	chunker *ChunkUseCase,
	store port.CorpusStore,
	index port.ChunkIndex,
	logger *slog.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		loader:  loader,
		chunker: chunker,
		store:   store,
		index:   index,
		logger:  logging.OrDiscard(logger),
	}
}

// IngestResult summarises one ingest pass.
type IngestResult struct {
	Corpus    *domain.Corpus
	Stats     domain.Statistics
	Failures  []domain.FileFailure
	Fallbacks []domain.ChunkFallback
	Indexed   uint64
}

// Run ingests the corpus under root. An empty corpus is reported as
// domain.ErrNoDocuments.
func (u *IngestUseCase) Run(ctx context.Context, root string, progress ProgressFunc) (*IngestResult, error) {
	loaded, err := u.loader.Load(ctx, root, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	if len(loaded.Documents) == 0 {
		return nil, fmt.Errorf("no documents under %s: %w", root, domain.ErrNoDocuments)
	}

	chunked, err := u.chunker.ChunkAll(loaded.Documents)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk documents: %w", err)
	}

	corpus := &domain.Corpus{
		Root:        root,
		Documents:   loaded.Documents,
		Chunks:      chunked.Chunks,
		ParentChild: chunked.ParentChild,
	}
	stats := Report(corpus.Documents, corpus.Chunks)

	staged, err := u.index.Stage(corpus.Chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}
	indexed, err := staged.Count()
	if err != nil {
		staged.Discard()
		return nil, fmt.Errorf("failed to count indexed chunks: %w", err)
	}

	if err := u.store.Save(corpus, stats); err != nil {
		staged.Discard()
		return nil, fmt.Errorf("failed to save corpus: %w", err)
	}

	if err := staged.Commit(); err != nil {
		u.logger.Error("snapshot saved but search index swap failed", "error", err)
		return nil, fmt.Errorf("failed to commit search index: %w", err)
	}

	u.logger.Info("ingest complete",
		"documents", stats.TotalDocuments,
		"chunks", stats.TotalChunks,
		"skipped", len(loaded.Failures),
		"indexed", indexed)

	return &IngestResult{
		Corpus:    corpus,
		Stats:     stats,
		Failures:  loaded.Failures,
		Fallbacks: chunked.Fallbacks,
		Indexed:   indexed,
	}, nil
}
