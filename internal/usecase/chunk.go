package usecase

import (
	"log/slog"
	"unicode/utf8"

	"docrag/internal/domain"
	"docrag/internal/logging"
	"docrag/internal/port"
)

// ChunkUseCase turns loaded documents into child chunks.
type ChunkUseCase struct {
	chunker port.Chunker
	logger  *slog.Logger
}

func NewChunkUseCase(chunker port.Chunker, logger *slog.Logger) *ChunkUseCase {
	return &ChunkUseCase{chunker: chunker, logger: logging.OrDiscard(logger)}
}

// ChunkAll splits every document and numbers the resulting chunks in order.
// BatchIndex runs 0..n-1 across the whole pass and ChunkSize is the chunk
// length in runes.
func (u *ChunkUseCase) ChunkAll(docs []domain.Document) (*domain.ChunkResult, error) {
	if len(docs) == 0 {
		return nil, domain.ErrNoDocuments
	}

	result := &domain.ChunkResult{
		ParentChild: make(domain.ParentChildMap),
	}
	for _, doc := range docs {
		chunks, fallback := u.chunker.Chunk(doc)
		if fallback != nil {
			result.Fallbacks = append(result.Fallbacks, *fallback)
		}
		result.Chunks = append(result.Chunks, chunks...)
	}

	for i := range result.Chunks {
		c := &result.Chunks[i]
		c.BatchIndex = i
		c.ChunkSize = utf8.RuneCountInString(c.Content)
		result.ParentChild[c.ChunkID] = c.ParentID
	}

	u.logger.Info("chunking complete",
		"documents", len(docs),
		"chunks", len(result.Chunks),
		"fallbacks", len(result.Fallbacks))
	return result, nil
}
