package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docrag/internal/domain"
	"docrag/internal/logging"
	"docrag/internal/port"
)

// NoContext is the context text used when retrieval found nothing.
const NoContext = "No related documents found."

const answerPrompt = `You are an experienced backend engineer. Answer the user's question using the technical documents below.

Question: %s

Related documents:
%s

Give a detailed, practical answer. If the documents are not enough, say so honestly.

Answer:`

// AnswerUseCase searches the chunk index, resolves the hits to their parent
// documents and asks the generator for an answer. It reads a fixed document
// snapshot and is safe for concurrent use as long as that snapshot is not
// reloaded.
type AnswerUseCase struct {
	index           port.ChunkIndex
	generator       port.Generator
	resolver        *ParentResolver
	docs            []domain.Document
	topK            int
	maxContextChars int
	logger          *slog.Logger
}

func NewAnswerUseCase(
	index port.ChunkIndex,
	generator port.Generator,
	docs []domain.Document,
	topK, maxContextChars int,
	logger *slog.Logger,
) *AnswerUseCase {
	logger = logging.OrDiscard(logger)
	return &AnswerUseCase{
		index:           index,
		generator:       generator,
		resolver:        NewParentResolver(logger),
		docs:            docs,
		topK:            topK,
		maxContextChars: maxContextChars,
		logger:          logger,
	}
}

// Retrieval holds the chunks a query matched and the parents they resolve to.
type Retrieval struct {
	Chunks  []domain.ScoredChunk
	Parents []domain.RankedParent
}

// Retrieve searches for query and resolves the hits. A topK of 0 uses the
// configured default.
func (u *AnswerUseCase) Retrieve(query string, topK int, filter domain.SearchFilter) (*Retrieval, error) {
	if topK <= 0 {
		topK = u.topK
	}
	hits, err := u.index.Search(query, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(hits))
	for i, h := range hits {
		chunks[i] = h.Chunk
	}
	resolved := u.resolver.Resolve(chunks, u.docs)

	u.logger.Debug("retrieved", "query", query, "hits", len(hits), "parents", len(resolved.Parents))
	return &Retrieval{Chunks: hits, Parents: resolved.Parents}, nil
}

// Answer retrieves context for query and returns the generated answer.
func (u *AnswerUseCase) Answer(ctx context.Context, query string, filter domain.SearchFilter) (string, *Retrieval, error) {
	r, err := u.Retrieve(query, 0, filter)
	if err != nil {
		return "", nil, err
	}
	u.logger.Info("generating answer", "model", u.generator.ModelName(), "documents", len(r.Parents))
	answer, err := u.generator.Generate(ctx, u.prompt(query, r))
	if err != nil {
		return "", r, fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, r, nil
}

// AnswerStream is Answer with the response delivered to onDelta piece by piece.
func (u *AnswerUseCase) AnswerStream(ctx context.Context, query string, filter domain.SearchFilter, onDelta func(string) error) (*Retrieval, error) {
	r, err := u.Retrieve(query, 0, filter)
	if err != nil {
		return nil, err
	}
	u.logger.Info("streaming answer", "model", u.generator.ModelName(), "documents", len(r.Parents))
	if err := u.generator.GenerateStream(ctx, u.prompt(query, r), onDelta); err != nil {
		return r, fmt.Errorf("failed to stream answer: %w", err)
	}
	return r, nil
}

func (u *AnswerUseCase) prompt(query string, r *Retrieval) string {
	docs := make([]domain.Document, len(r.Parents))
	for i, p := range r.Parents {
		docs[i] = p.Document
	}
	return fmt.Sprintf(answerPrompt, query, BuildContext(docs, u.maxContextChars))
}

// BuildContext renders docs as numbered sections. Documents are added in
// order until the next one would push the text past maxChars runes; a
// maxChars of 0 or less means no limit.
func BuildContext(docs []domain.Document, maxChars int) string {
	if len(docs) == 0 {
		return NoContext
	}

	var b strings.Builder
	b.WriteString(strings.Repeat("=", 80) + "\n")
	length := 0
	for i, d := range docs {
		header := fmt.Sprintf("[Document %d] %s | Category: %s | Source: %s",
			i+1, d.Title, d.Category, filepath.Base(d.Source))
		text := header + "\n" + d.Content + "\n"

		n := utf8.RuneCountInString(text)
		if maxChars > 0 && length+n > maxChars {
			break
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
		length += n
	}
	return b.String()
}
