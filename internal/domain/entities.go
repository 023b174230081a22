package domain

import "errors"

const (
	DocTypeParent = "parent"
	DocTypeChild  = "child"

	// UnknownCategory is assigned when no category rule matches a path.
	UnknownCategory = "unknown"
)

var (
	ErrNoDocuments    = errors.New("no documents loaded: load the corpus before chunking")
	ErrCorpusNotFound = errors.New("no corpus snapshot found")
	ErrNotFound       = errors.New("not found")
	ErrNoAPIKey       = errors.New("generation API key not set")
)

// Document is a full source file of the corpus (a parent document).
type Document struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	RelPath  string `json:"rel_path"`
	Title    string `json:"title"`
	Category string `json:"category"`
	DocType  string `json:"doc_type"`
	Content  string `json:"content"`
}

// Chunk is a heading-aligned slice of exactly one Document.
type Chunk struct {
	ChunkID    string `json:"chunk_id"`
	ParentID   string `json:"parent_id"`
	DocType    string `json:"doc_type"`
	Category   string `json:"category"`
	Title      string `json:"title"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	BatchIndex int    `json:"batch_index"`
	ChunkSize  int    `json:"chunk_size"`
	Content    string `json:"content"`
}

// ParentChildMap maps chunk ids to the id of the owning document.
type ParentChildMap map[string]string

// Corpus bundles the output of one load and chunk pass.
type Corpus struct {
	Root        string
	Documents   []Document
	Chunks      []Chunk
	ParentChild ParentChildMap
}

// FileFailure records a file skipped during loading.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type LoadResult struct {
	Documents []Document
	Failures  []FileFailure
}

// ChunkFallback records a document that was kept whole instead of split.
type ChunkFallback struct {
	DocumentID string
	Title      string
	Reason     string
}

type ChunkResult struct {
	Chunks      []Chunk
	ParentChild ParentChildMap
	Fallbacks   []ChunkFallback
}

// RankedParent is a resolved parent document with the number of its chunks
// present in the resolver input.
type RankedParent struct {
	Document  Document `json:"document"`
	Relevance int      `json:"relevance"`
}

type ResolveResult struct {
	Parents  []RankedParent
	Dangling []string
}

// Documents returns the resolved parents without relevance counts.
func (r ResolveResult) Documents() []Document {
	docs := make([]Document, len(r.Parents))
	for i, p := range r.Parents {
		docs[i] = p.Document
	}
	return docs
}

type Statistics struct {
	TotalDocuments   int            `json:"total_documents"`
	TotalChunks      int            `json:"total_chunks"`
	CategoryCounts   map[string]int `json:"category_counts"`
	AverageChunkSize float64        `json:"average_chunk_size"`
}

type MetadataRecord struct {
	Source        string `json:"source"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	ContentLength int    `json:"content_length"`
}

// SearchFilter narrows a chunk index search. Empty fields match everything.
type SearchFilter struct {
	Category string
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// CategoryRule is one ordered (path segment, label) pair of the category table.
type CategoryRule struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}
