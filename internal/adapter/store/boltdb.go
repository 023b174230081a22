package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var _ port.CorpusStore = (*BoltStore)(nil)

var (
	bucketDocs        = []byte("docs")
	bucketChunks      = []byte("chunks")
	bucketParentChild = []byte("parent_child")
	bucketDocChunks   = []byte("doc_chunks")
	bucketStats       = []byte("stats")
	keyStats          = []byte("corpus_stats")
	keyRoot           = []byte("corpus_root")
	keyDocOrder       = []byte("doc_order")

	snapshotBuckets = [][]byte{bucketDocs, bucketChunks, bucketParentChild, bucketDocChunks}
)

// BoltStore keeps the latest corpus snapshot in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketChunks, bucketParentChild, bucketDocChunks, bucketStats} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Save replaces the stored snapshot in a single transaction. Readers see either
// the old corpus or the new one, never a mix.
func (s *BoltStore) Save(corpus *domain.Corpus, stats domain.Statistics) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range snapshotBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to clear bucket %s: %w", name, err)
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		docs := tx.Bucket(bucketDocs)
		order := make([]string, 0, len(corpus.Documents))
		for _, doc := range corpus.Documents {
			if err := putJSON(docs, []byte(doc.ID), doc); err != nil {
				return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
			}
			order = append(order, doc.ID)
		}

		chunks := tx.Bucket(bucketChunks)
		byParent := make(map[string][]string)
		for _, chunk := range corpus.Chunks {
			if err := putJSON(chunks, []byte(chunk.ChunkID), chunk); err != nil {
				return fmt.Errorf("failed to store chunk %s: %w", chunk.ChunkID, err)
			}
			byParent[chunk.ParentID] = append(byParent[chunk.ParentID], chunk.ChunkID)
		}

		docChunks := tx.Bucket(bucketDocChunks)
		for parentID, ids := range byParent {
			if err := putJSON(docChunks, []byte(parentID), ids); err != nil {
				return err
			}
		}

		parentChild := tx.Bucket(bucketParentChild)
		for childID, parentID := range corpus.ParentChild {
			if err := parentChild.Put([]byte(childID), []byte(parentID)); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketStats)
		if err := putJSON(meta, keyStats, stats); err != nil {
			return err
		}
		if err := putJSON(meta, keyDocOrder, order); err != nil {
			return err
		}
		return meta.Put(keyRoot, []byte(corpus.Root))
	})
}

// Load returns the stored corpus. It returns domain.ErrCorpusNotFound when
// nothing has been saved yet.
func (s *BoltStore) Load() (*domain.Corpus, error) {
	corpus := &domain.Corpus{ParentChild: make(domain.ParentChildMap)}

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketStats)
		root := meta.Get(keyRoot)
		if root == nil {
			return domain.ErrCorpusNotFound
		}
		corpus.Root = string(root)

		var order []string
		if err := getJSON(meta, keyDocOrder, &order); err != nil {
			return err
		}
		docs := tx.Bucket(bucketDocs)
		for _, id := range order {
			var doc domain.Document
			if err := getJSON(docs, []byte(id), &doc); err != nil {
				return fmt.Errorf("document %s: %w", id, err)
			}
			corpus.Documents = append(corpus.Documents, doc)
		}

		err := tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var chunk domain.Chunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return err
			}
			corpus.Chunks = append(corpus.Chunks, chunk)
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketParentChild).ForEach(func(k, v []byte) error {
			corpus.ParentChild[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(corpus.Chunks, func(i, j int) bool {
		return corpus.Chunks[i].BatchIndex < corpus.Chunks[j].BatchIndex
	})
	return corpus, nil
}

func (s *BoltStore) Document(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := getJSON(tx.Bucket(bucketDocs), []byte(id), &doc); err != nil {
			return fmt.Errorf("document %s: %w", id, err)
		}
		return nil
	})
	return doc, err
}

func (s *BoltStore) Chunk(id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := getJSON(tx.Bucket(bucketChunks), []byte(id), &chunk); err != nil {
			return fmt.Errorf("chunk %s: %w", id, err)
		}
		return nil
	})
	return chunk, err
}

// ChunksByParent returns the chunks of one document ordered by ChunkIndex.
func (s *BoltStore) ChunksByParent(parentID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		var ids []string
		if err := getJSON(tx.Bucket(bucketDocChunks), []byte(parentID), &ids); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		for _, id := range ids {
			var chunk domain.Chunk
			if err := getJSON(chunkBucket, []byte(id), &chunk); err != nil {
				continue
			}
			chunks = append(chunks, chunk)
		}
		return nil
	})
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, err
}

func (s *BoltStore) Stats() (domain.Statistics, error) {
	var stats domain.Statistics
	err := s.db.View(func(tx *bbolt.Tx) error {
		err := getJSON(tx.Bucket(bucketStats), keyStats, &stats)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrCorpusNotFound
		}
		return err
	})
	return stats, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func putJSON(b *bbolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *bbolt.Bucket, key []byte, v any) error {
	data := b.Get(key)
	if data == nil {
		return domain.ErrNotFound
	}
	return json.Unmarshal(data, v)
}
