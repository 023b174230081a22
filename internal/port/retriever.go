package port

import "docrag/internal/domain"

// ChunkIndex is the search handle over indexed chunk records.
type ChunkIndex interface {
	// Stage builds a new generation holding exactly chunks. Searches keep
	// seeing the current generation until the staged one is committed.
	Stage(chunks []domain.Chunk) (StagedIndex, error)

	// Search returns up to k chunks matching the query, best first.
	Search(query string, k int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)

	Count() (uint64, error)

	Close() error
}

// StagedIndex is a fully built index generation that is not yet searchable.
// Exactly one of Commit or Discard should be called.
type StagedIndex interface {
	// Commit makes the staged generation the searchable one and drops the
	// previous generation.
	Commit() error

	Discard() error

	Count() (uint64, error)
}
