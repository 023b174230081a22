package usecase

import (
	"log/slog"
	"sort"

	"docrag/internal/domain"
	"docrag/internal/logging"
)

// ParentResolver maps retrieved chunks back to their source documents.
type ParentResolver struct {
	logger *slog.Logger
}

func NewParentResolver(logger *slog.Logger) *ParentResolver {
	return &ParentResolver{logger: logging.OrDiscard(logger)}
}

// Resolve returns the distinct parents of chunks ordered by how many of their
// chunks appear in the input, most first. Ties keep the order in which each
// parent was first seen. Parent ids with no matching document are logged and
// reported in Dangling.
func (r *ParentResolver) Resolve(chunks []domain.Chunk, docs []domain.Document) domain.ResolveResult {
	byID := make(map[string]int, len(docs))
	for i, d := range docs {
		if _, ok := byID[d.ID]; !ok {
			byID[d.ID] = i
		}
	}

	var order []string
	counts := make(map[string]int)
	for _, c := range chunks {
		if c.ParentID == "" {
			continue
		}
		if _, seen := counts[c.ParentID]; !seen {
			order = append(order, c.ParentID)
		}
		counts[c.ParentID]++
	}

	var result domain.ResolveResult
	for _, id := range order {
		idx, ok := byID[id]
		if !ok {
			r.logger.Warn("parent document not found", "parent_id", id)
			result.Dangling = append(result.Dangling, id)
			continue
		}
		result.Parents = append(result.Parents, domain.RankedParent{
			Document:  docs[idx],
			Relevance: counts[id],
		})
	}

	sort.SliceStable(result.Parents, func(i, j int) bool {
		return result.Parents[i].Relevance > result.Parents[j].Relevance
	})

	titles := make([]string, len(result.Parents))
	for i, p := range result.Parents {
		titles[i] = p.Document.Title
	}
	r.logger.Info("resolved parent documents",
		"chunks", len(chunks), "parents", len(result.Parents), "titles", titles)
	return result
}
