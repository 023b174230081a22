package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"docrag/internal/adapter/category"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/fs"
	"docrag/internal/domain"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "database/redis/persistence.md",
		"# Redis persistence\n\nOverview.\n\n## RDB\n\nSnapshots.\n\n## AOF\n\nAppend only file.\n")
	writeFile(t, root, "database/mysql/index.md",
		"# MySQL indexes\n\nB+ trees.\n\n## Covering index\n\nNo lookup back to the table.\n")
	writeFile(t, root, "notes/plain.md", "No headings at all, just text.\n")
	return root
}

func newLoader(workers int) *DocumentLoader {
	return NewDocumentLoader(
		fs.NewWalker(nil, nil),
		fs.Reader{},
		category.NewClassifier(nil),
		workers,
		nil,
	)
}

func newChunkUseCase() *ChunkUseCase {
	return NewChunkUseCase(chunker.NewHeadingChunker(chunker.DefaultMaxDepth), nil)
}

func doc(id, title, category, content string) domain.Document {
	return domain.Document{
		ID:       id,
		Source:   "/kb/" + title + ".md",
		RelPath:  title + ".md",
		Title:    title,
		Category: category,
		DocType:  domain.DocTypeParent,
		Content:  content,
	}
}

func chunkOf(parentID string) domain.Chunk {
	return domain.Chunk{ChunkID: parentID + "-c", ParentID: parentID, DocType: domain.DocTypeChild}
}
