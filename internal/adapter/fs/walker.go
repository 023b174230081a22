package fs

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"docrag/internal/logging"
	"docrag/internal/port"
)

var _ port.FileWalker = (*Walker)(nil)

// DefaultIncludes matches the markdown documents of a knowledge base.
var DefaultIncludes = []string{"**/*.md"}

type Walker struct {
	includes []string
	excludes []string
	logger   *slog.Logger
}

type WalkerOption func(*Walker)

func WithLogger(l *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewWalker(includes, excludes []string, opts ...WalkerOption) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	w := &Walker{
		includes: includes,
		excludes: excludes,
		logger:   logging.Discard(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Walk returns the matching files under root sorted by path. A root that does
// not exist yields no files and no error. Entries that cannot be read are
// skipped with a warning.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	var files []port.FileInfo

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("skipping unreadable entry", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if path != root && w.shouldExclude(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldInclude(relPath) && !w.shouldExclude(relPath) {
			files = append(files, port.FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) shouldInclude(path string) bool {
	for _, pattern := range w.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// Reader reads files as UTF-8 text.
type Reader struct{}

var _ port.FileReader = Reader{}

// ReadFile returns the file content. Content that is not valid UTF-8 is an error.
func (Reader) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}
