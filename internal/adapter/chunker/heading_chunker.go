package chunker

import (
	"log/slog"

	"github.com/google/uuid"

	"docrag/internal/domain"
	"docrag/internal/logging"
	"docrag/internal/port"
)

var _ port.Chunker = (*HeadingChunker)(nil)

// DefaultMaxDepth is the deepest heading level that starts a new chunk.
// Deeper headings stay inside the enclosing section.
const DefaultMaxDepth = 3

const (
	reasonNoHeadings    = "no headings found"
	reasonSingleSection = "split produced a single section"
	reasonParseFailed   = "heading split failed"
)

// HeadingChunker splits a document at heading lines and keeps each heading at
// the top of its chunk. Documents without structure become a single chunk.
type HeadingChunker struct {
	sections *SectionParser
	newID    func() string
	logger   *slog.Logger
}

type Option func(*HeadingChunker)

// WithIDFunc replaces the chunk id generator.
func WithIDFunc(fn func() string) Option {
	return func(c *HeadingChunker) { c.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *HeadingChunker) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewHeadingChunker(maxDepth int, opts ...Option) *HeadingChunker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	c := &HeadingChunker{
		sections: NewSectionParser(maxDepth),
		newID:    uuid.NewString,
		logger:   logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chunk returns the chunks of doc in document order with ChunkIndex set. The
// fallback result is non-nil when the whole document was kept as one chunk.
func (c *HeadingChunker) Chunk(doc domain.Document) ([]domain.Chunk, *domain.ChunkFallback) {
	sections, err := c.sections.Parse(doc.Content)

	reason := ""
	switch {
	case err != nil:
		reason = reasonParseFailed + ": " + err.Error()
	case len(sections) == 0:
		reason = reasonNoHeadings
	case len(sections) == 1:
		reason = reasonSingleSection
	}

	if reason != "" {
		c.logger.Warn("document kept as a single chunk",
			"title", doc.Title, "source", doc.Source, "reason", reason)
		chunk := c.newChunk(doc, doc.Content, 0)
		return []domain.Chunk{chunk}, &domain.ChunkFallback{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Reason:     reason,
		}
	}

	chunks := make([]domain.Chunk, len(sections))
	for i, s := range sections {
		chunks[i] = c.newChunk(doc, doc.Content[s.Start:s.End], i)
	}
	c.logger.Debug("document split", "title", doc.Title, "chunks", len(chunks))
	return chunks, nil
}

func (c *HeadingChunker) newChunk(doc domain.Document, content string, index int) domain.Chunk {
	return domain.Chunk{
		ChunkID:    c.newID(),
		ParentID:   doc.ID,
		DocType:    domain.DocTypeChild,
		Category:   doc.Category,
		Title:      doc.Title,
		Source:     doc.Source,
		ChunkIndex: index,
		Content:    content,
	}
}
