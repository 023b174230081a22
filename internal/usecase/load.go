package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"docrag/internal/domain"
	"docrag/internal/logging"
	"docrag/internal/port"
)

// ProgressFunc is called after each file is processed. It may be called from
// several goroutines at once.
type ProgressFunc func(processed, total int, currentFile string)

// DocumentLoader reads the corpus directory into parent documents.
type DocumentLoader struct {
	walker     port.FileWalker
	reader     port.FileReader
	classifier port.Classifier
	workers    int
	logger     *slog.Logger
}

// NewDocumentLoader creates a loader reading up to workers files at a time.
func NewDocumentLoader(
	walker port.FileWalker,
	reader port.FileReader,
	classifier port.Classifier,
	workers int,
	logger *slog.Logger,
) *DocumentLoader {
	if workers < 1 {
		workers = 1
	}
	return &DocumentLoader{
		walker:     walker,
		reader:     reader,
		classifier: classifier,
		workers:    workers,
		logger:     logging.OrDiscard(logger),
	}
}

// loadOutcome is the per-file result of a load pass.
type loadOutcome struct {
	doc     *domain.Document
	failure *domain.FileFailure
}

// Load reads every matching file under root. Files that cannot be read are
// reported in the result and skipped. An empty corpus is not an error.
// Documents keep the walker's path order regardless of read completion order.
func (l *DocumentLoader) Load(ctx context.Context, root string, progress ProgressFunc) (*domain.LoadResult, error) {
	l.logger.Info("loading documents", "root", root)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus root: %w", err)
	}

	files, err := l.walker.Walk(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	outcomes := make([]loadOutcome, len(files))
	var processed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = l.loadFile(absRoot, file.Path)
			if progress != nil {
				progress(int(processed.Add(1)), len(files), file.Path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.LoadResult{Documents: make([]domain.Document, 0, len(files))}
	for _, o := range outcomes {
		if o.failure != nil {
			result.Failures = append(result.Failures, *o.failure)
			continue
		}
		result.Documents = append(result.Documents, *o.doc)
	}

	l.logger.Info("documents loaded", "loaded", len(result.Documents), "skipped", len(result.Failures))
	return result, nil
}

func (l *DocumentLoader) loadFile(root, path string) loadOutcome {
	content, err := l.reader.ReadFile(path)
	if err != nil {
		l.logger.Error("failed to load file", "path", path, "error", err)
		return loadOutcome{failure: &domain.FileFailure{Path: path, Reason: err.Error()}}
	}

	idPath, err := RelativePath(root, path)
	if err != nil {
		l.logger.Warn("hashing absolute path for document id", "path", path, "error", err)
		idPath = filepath.ToSlash(path)
	}

	// The category follows the directory the file was found in, even when a
	// symlink resolves elsewhere.
	walked, err := filepath.Rel(root, path)
	if err != nil {
		walked = idPath
	}
	walked = filepath.ToSlash(walked)

	doc := domain.Document{
		ID:       DocumentID(idPath),
		Source:   path,
		RelPath:  walked,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Category: l.classifier.Classify(dirSegments(walked)),
		DocType:  domain.DocTypeParent,
		Content:  content,
	}
	return loadOutcome{doc: &doc}
}

// DocumentID returns the lowercase hex MD5 digest of a forward-slash path.
func DocumentID(slashPath string) string {
	sum := md5.Sum([]byte(slashPath))
	return hex.EncodeToString(sum[:])
}

// RelativePath expresses path relative to root in forward-slash form after
// resolving symlinks. Paths that resolve outside root are an error.
func RelativePath(root, path string) (string, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s resolves outside %s", path, root)
	}
	return filepath.ToSlash(rel), nil
}

func dirSegments(slashPath string) []string {
	dir := strings.Trim(filepath.ToSlash(filepath.Dir(filepath.FromSlash(slashPath))), "/")
	if dir == "." || dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}
