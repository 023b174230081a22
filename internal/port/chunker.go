package port

import "docrag/internal/domain"

// Chunker splits one document into heading-aligned chunks. It never returns
// zero chunks; documents it cannot split are kept whole.
type Chunker interface {
	Chunk(doc domain.Document) (chunks []domain.Chunk, fallback *domain.ChunkFallback)
}

// Classifier maps the directory segments of a path to a category label.
type Classifier interface {
	Classify(segments []string) string

	Labels() []string
}
