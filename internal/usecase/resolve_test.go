package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func titles(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}

func TestResolveOrdersByRelevance(t *testing.T) {
	docs := []domain.Document{doc("A", "A", "x", ""), doc("B", "B", "x", "")}
	chunks := []domain.Chunk{chunkOf("A"), chunkOf("A"), chunkOf("B")}

	result := NewParentResolver(nil).Resolve(chunks, docs)
	assert.Equal(t, []string{"A", "B"}, titles(result.Documents()))
	require.Len(t, result.Parents, 2)
	assert.Equal(t, 2, result.Parents[0].Relevance)
	assert.Equal(t, 1, result.Parents[1].Relevance)
}

func TestResolveMoreChunksWinsRegardlessOfPosition(t *testing.T) {
	docs := []domain.Document{doc("A", "A", "x", ""), doc("B", "B", "x", "")}
	chunks := []domain.Chunk{chunkOf("A"), chunkOf("B"), chunkOf("B")}

	result := NewParentResolver(nil).Resolve(chunks, docs)
	assert.Equal(t, []string{"B", "A"}, titles(result.Documents()))
}

func TestResolveTiesKeepFirstEncounterOrder(t *testing.T) {
	docs := []domain.Document{doc("A", "A", "x", ""), doc("B", "B", "x", ""), doc("C", "C", "x", "")}

	result := NewParentResolver(nil).Resolve([]domain.Chunk{chunkOf("B"), chunkOf("A")}, docs)
	assert.Equal(t, []string{"B", "A"}, titles(result.Documents()))

	result = NewParentResolver(nil).Resolve([]domain.Chunk{chunkOf("C"), chunkOf("A"), chunkOf("B"), chunkOf("A"), chunkOf("C")}, docs)
	assert.Equal(t, []string{"C", "A", "B"}, titles(result.Documents()))
}

func TestResolveSkipsDanglingParents(t *testing.T) {
	docs := []domain.Document{doc("A", "A", "x", "")}
	chunks := []domain.Chunk{chunkOf("missing"), chunkOf("A"), chunkOf("missing")}

	result := NewParentResolver(nil).Resolve(chunks, docs)
	assert.Equal(t, []string{"A"}, titles(result.Documents()))
	assert.Equal(t, []string{"missing"}, result.Dangling)
}

func TestResolveEmptyInput(t *testing.T) {
	result := NewParentResolver(nil).Resolve(nil, []domain.Document{doc("A", "A", "x", "")})
	assert.Empty(t, result.Parents)
	assert.Empty(t, result.Dangling)
}
