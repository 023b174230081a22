package memstore

import (
	"fmt"
	"sort"
	"sync"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.CorpusStore = (*MemoryStore)(nil)

// MemoryStore keeps one corpus snapshot in memory. Saved data is copied so
// callers may keep mutating their own slices.
type MemoryStore struct {
	mu        sync.RWMutex
	saved     bool
	root      string
	docOrder  []string
	docs      map[string]domain.Document
	chunks    map[string]domain.Chunk
	docChunks map[string][]string
	parents   domain.ParentChildMap
	stats     domain.Statistics
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.docOrder = nil
	s.docs = make(map[string]domain.Document)
	s.chunks = make(map[string]domain.Chunk)
	s.docChunks = make(map[string][]string)
	s.parents = make(domain.ParentChildMap)
	s.stats = domain.Statistics{}
}

func (s *MemoryStore) Save(corpus *domain.Corpus, stats domain.Statistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.saved = true
	s.root = corpus.Root

	for _, doc := range corpus.Documents {
		s.docs[doc.ID] = doc
		s.docOrder = append(s.docOrder, doc.ID)
	}
	for _, chunk := range corpus.Chunks {
		s.chunks[chunk.ChunkID] = chunk
		s.docChunks[chunk.ParentID] = append(s.docChunks[chunk.ParentID], chunk.ChunkID)
	}
	for k, v := range corpus.ParentChild {
		s.parents[k] = v
	}

	s.stats = stats
	s.stats.CategoryCounts = make(map[string]int, len(stats.CategoryCounts))
	for k, v := range stats.CategoryCounts {
		s.stats.CategoryCounts[k] = v
	}
	return nil
}

func (s *MemoryStore) Load() (*domain.Corpus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return nil, domain.ErrCorpusNotFound
	}

	corpus := &domain.Corpus{
		Root:        s.root,
		Documents:   make([]domain.Document, 0, len(s.docOrder)),
		Chunks:      make([]domain.Chunk, 0, len(s.chunks)),
		ParentChild: make(domain.ParentChildMap, len(s.parents)),
	}
	for _, id := range s.docOrder {
		corpus.Documents = append(corpus.Documents, s.docs[id])
	}
	for _, chunk := range s.chunks {
		corpus.Chunks = append(corpus.Chunks, chunk)
	}
	sort.Slice(corpus.Chunks, func(i, j int) bool {
		return corpus.Chunks[i].BatchIndex < corpus.Chunks[j].BatchIndex
	})
	for k, v := range s.parents {
		corpus.ParentChild[k] = v
	}
	return corpus, nil
}

func (s *MemoryStore) Document(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

func (s *MemoryStore) Chunk(id string) (domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return domain.Chunk{}, fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
	}
	return chunk, nil
}

// ChunksByParent returns the chunks of a document ordered by ChunkIndex.
func (s *MemoryStore) ChunksByParent(parentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.docChunks[parentID]
	chunks := make([]domain.Chunk, 0, len(ids))
	for _, id := range ids {
		chunks = append(chunks, s.chunks[id])
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

func (s *MemoryStore) Stats() (domain.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return domain.Statistics{}, domain.ErrCorpusNotFound
	}
	return s.stats, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
