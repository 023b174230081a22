package search

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var (
	_ port.ChunkIndex  = (*BleveIndex)(nil)
	_ port.StagedIndex = (*stagedIndex)(nil)
)

const batchSize = 100

const stagingSuffix = ".staging"

var errStagedDone = errors.New("staged index already committed or discarded")

// BleveIndex is a local full-text index over chunk records. Category and
// parent ids are indexed as keywords so they can be used as exact filters.
// An empty path means the index lives in memory.
type BleveIndex struct {
	mu    sync.RWMutex
	path  string
	index bleve.Index
}

// Open opens the index at path, creating it when it does not exist.
func Open(path string) (*BleveIndex, error) {
	idx, err := openOrCreate(path)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{path: path, index: idx}, nil
}

// NewInMemory creates an index that lives only in memory.
func NewInMemory() (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &BleveIndex{index: idx}, nil
}

func openOrCreate(path string) (bleve.Index, error) {
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open search index: %w", err)
		}
		return idx, nil
	}

	idx, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return idx, nil
}

func newMapping() mapping.IndexMapping {
	keyword := bleve.NewKeywordFieldMapping()

	content := bleve.NewTextFieldMapping()
	title := bleve.NewTextFieldMapping()

	number := bleve.NewNumericFieldMapping()

	chunk := bleve.NewDocumentMapping()
	chunk.AddFieldMappingsAt("content", content)
	chunk.AddFieldMappingsAt("title", title)
	chunk.AddFieldMappingsAt("category", keyword)
	chunk.AddFieldMappingsAt("parent_id", keyword)
	chunk.AddFieldMappingsAt("doc_type", keyword)
	chunk.AddFieldMappingsAt("chunk_id", keyword)
	chunk.AddFieldMappingsAt("source", keyword)
	chunk.AddFieldMappingsAt("chunk_index", number)
	chunk.AddFieldMappingsAt("batch_index", number)
	chunk.AddFieldMappingsAt("chunk_size", number)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = chunk
	return m
}

// Stage indexes chunks into a fresh index next to the live one. On disk the
// staged index lives at path + ".staging" until it is committed.
func (b *BleveIndex) Stage(chunks []domain.Chunk) (port.StagedIndex, error) {
	var (
		idx bleve.Index
		err error
	)
	if b.path == "" {
		idx, err = bleve.NewMemOnly(newMapping())
	} else {
		staging := b.path + stagingSuffix
		if err := os.RemoveAll(staging); err != nil {
			return nil, fmt.Errorf("failed to remove old staging index: %w", err)
		}
		idx, err = bleve.New(staging, newMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create staging index: %w", err)
	}

	staged := &stagedIndex{owner: b, index: idx}
	if err := indexChunks(idx, chunks); err != nil {
		staged.Discard()
		return nil, err
	}
	return staged, nil
}

func indexChunks(idx bleve.Index, chunks []domain.Chunk) error {
	batch := idx.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ChunkID, chunk); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ChunkID, err)
		}
		if (i+1)%batchSize == 0 {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = idx.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}

type stagedIndex struct {
	owner *BleveIndex
	index bleve.Index
	done  bool
}

func (s *stagedIndex) Count() (uint64, error) {
	if s.done {
		return 0, errStagedDone
	}
	return s.index.DocCount()
}

func (s *stagedIndex) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.index.Close()
	if s.owner.path != "" {
		if rmErr := os.RemoveAll(s.owner.path + stagingSuffix); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// Commit swaps the staged index in. On disk the live directory is replaced
// by the staging directory and reopened.
func (s *stagedIndex) Commit() error {
	if s.done {
		return errStagedDone
	}
	s.done = true

	b := s.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.path == "" {
		old := b.index
		b.index = s.index
		return old.Close()
	}

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("failed to close staging index: %w", err)
	}
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("failed to close search index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("failed to remove old search index: %w", err)
	}
	if err := os.Rename(b.path+stagingSuffix, b.path); err != nil {
		return fmt.Errorf("failed to swap in search index: %w", err)
	}
	idx, err := bleve.Open(b.path)
	if err != nil {
		return fmt.Errorf("failed to reopen search index: %w", err)
	}
	b.index = idx
	return nil
}

// Search runs a match query over title and content. A category filter is
// applied as an exact keyword match.
func (b *BleveIndex) Search(text string, k int, filter domain.SearchFilter) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	contentQuery := bleve.NewMatchQuery(text)
	contentQuery.SetField("content")
	titleQuery := bleve.NewMatchQuery(text)
	titleQuery.SetField("title")
	var q query.Query = bleve.NewDisjunctionQuery(contentQuery, titleQuery)

	if filter.Category != "" {
		categoryQuery := bleve.NewTermQuery(filter.Category)
		categoryQuery.SetField("category")
		q = bleve.NewConjunctionQuery(q, categoryQuery)
	}

	req := bleve.NewSearchRequestOptions(q, k, 0, false)
	req.Fields = []string{"*"}

	b.mu.RLock()
	res, err := b.index.Search(req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.ScoredChunk, 0, len(res.Hits))
	for _, hit := range res.Hits {
		results = append(results, domain.ScoredChunk{
			Chunk: chunkFromFields(hit.ID, hit.Fields),
			Score: hit.Score,
		})
	}
	return results, nil
}

func (b *BleveIndex) Count() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

func chunkFromFields(id string, fields map[string]interface{}) domain.Chunk {
	chunk := domain.Chunk{ChunkID: id}
	chunk.ParentID, _ = fields["parent_id"].(string)
	chunk.DocType, _ = fields["doc_type"].(string)
	chunk.Category, _ = fields["category"].(string)
	chunk.Title, _ = fields["title"].(string)
	chunk.Source, _ = fields["source"].(string)
	chunk.Content, _ = fields["content"].(string)
	if v, ok := fields["chunk_index"].(float64); ok {
		chunk.ChunkIndex = int(v)
	}
	if v, ok := fields["batch_index"].(float64); ok {
		chunk.BatchIndex = int(v)
	}
	if v, ok := fields["chunk_size"].(float64); ok {
		chunk.ChunkSize = int(v)
	}
	return chunk
}
