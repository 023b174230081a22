package usecase

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"docrag/internal/domain"
)

// Report aggregates corpus statistics. CategoryCounts tallies documents, not
// chunks. AverageChunkSize is the mean of the recorded ChunkSize values and 0
// for an empty chunk list.
func Report(docs []domain.Document, chunks []domain.Chunk) domain.Statistics {
	stats := domain.Statistics{
		TotalDocuments: len(docs),
		TotalChunks:    len(chunks),
		CategoryCounts: make(map[string]int),
	}
	for _, d := range docs {
		stats.CategoryCounts[d.Category]++
	}
	if len(chunks) == 0 {
		return stats
	}

	total := 0
	for _, c := range chunks {
		total += c.ChunkSize
	}
	stats.AverageChunkSize = float64(total) / float64(len(chunks))
	return stats
}

// ExportMetadata returns one record per document in input order.
func ExportMetadata(docs []domain.Document) []domain.MetadataRecord {
	records := make([]domain.MetadataRecord, len(docs))
	for i, d := range docs {
		records[i] = domain.MetadataRecord{
			Source:        d.Source,
			Title:         d.Title,
			Category:      d.Category,
			ContentLength: utf8.RuneCountInString(d.Content),
		}
	}
	return records
}

// WriteMetadata writes the metadata export of docs to w as an indented JSON
// array. Non-ASCII text is written as is.
func WriteMetadata(w io.Writer, docs []domain.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportMetadata(docs)); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return nil
}

// ExportMetadataFile writes the metadata export of docs to path.
func ExportMetadataFile(path string, docs []domain.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	if err := WriteMetadata(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FilterByCategory returns the documents labelled with category.
func FilterByCategory(docs []domain.Document, category string) []domain.Document {
	var out []domain.Document
	for _, d := range docs {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
