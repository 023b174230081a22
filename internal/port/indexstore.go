package port

import "docrag/internal/domain"

// CorpusStore persists the snapshot produced by one ingest pass.
type CorpusStore interface {
	// Save replaces any previous snapshot with corpus and its statistics.
	Save(corpus *domain.Corpus, stats domain.Statistics) error

	// Load returns the stored corpus with chunks in batch order.
	Load() (*domain.Corpus, error)

	Document(id string) (domain.Document, error)

	Chunk(id string) (domain.Chunk, error)

	ChunksByParent(parentID string) ([]domain.Chunk, error)

	Stats() (domain.Statistics, error)

	Close() error
}
