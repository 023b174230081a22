package usecase

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestChunkAllRequiresDocuments(t *testing.T) {
	_, err := newChunkUseCase().ChunkAll(nil)
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestChunkAllNumbersChunks(t *testing.T) {
	docs := []domain.Document{
		doc("a", "a", "Redis", "# A\n\none\n\n## A2\n\ntwo\n"),
		doc("b", "b", "MySQL", "plain text"),
		doc("c", "c", "JVM", "# C\n\nthree\n\n## C2\n\nfour\n\n## C3\n\nfive\n"),
	}

	result, err := newChunkUseCase().ChunkAll(docs)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 6)
	require.Len(t, result.Fallbacks, 1)
	assert.Equal(t, "b", result.Fallbacks[0].DocumentID)

	wantParents := []string{"a", "a", "b", "c", "c", "c"}
	wantIndex := []int{0, 1, 0, 0, 1, 2}
	for i, c := range result.Chunks {
		assert.Equal(t, i, c.BatchIndex)
		assert.Equal(t, wantParents[i], c.ParentID)
		assert.Equal(t, wantIndex[i], c.ChunkIndex)
		assert.Equal(t, utf8.RuneCountInString(c.Content), c.ChunkSize)
	}
}

func TestChunkAllParentChildMapConsistent(t *testing.T) {
	root := sampleCorpus(t)
	loaded, err := newLoader(4).Load(context.Background(), root, nil)
	require.NoError(t, err)

	result, err := newChunkUseCase().ChunkAll(loaded.Documents)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, d := range loaded.Documents {
		ids[d.ID] = true
	}
	owned := make(map[string]int)

	require.Len(t, result.ParentChild, len(result.Chunks))
	for _, c := range result.Chunks {
		assert.Equal(t, c.ParentID, result.ParentChild[c.ChunkID])
		assert.True(t, ids[c.ParentID])
		owned[c.ParentID]++
	}
	for id := range ids {
		assert.GreaterOrEqual(t, owned[id], 1, "document %s has no chunks", id)
	}
}

func TestChunkAllEmptyDocumentKeepsOneChunk(t *testing.T) {
	result, err := newChunkUseCase().ChunkAll([]domain.Document{doc("e", "empty", "unknown", "")})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "", result.Chunks[0].Content)
	assert.Equal(t, 0, result.Chunks[0].ChunkSize)
}

func TestChunkSizeCountsRunes(t *testing.T) {
	result, err := newChunkUseCase().ChunkAll([]domain.Document{doc("z", "zh", "unknown", "缓存穿透")})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, 4, result.Chunks[0].ChunkSize)
}
