package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fyrsmithlabs/lpcassist/internal/ignore"
	"github.com/fyrsmithlabs/lpcassist/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/fyrsmithlabs/lpcassist/internal/corpus")

// defaultSkipDirs are never descended into.
var defaultSkipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"__pycache__":  true,
}

// DefaultIgnoreFiles are read from the corpus root for exclusion rules.
var DefaultIgnoreFiles = []string{".corpusignore", ".gitignore"}

// Index is a read-through index over a corpus directory.
//
// Build populates the postings once; Refresh discards and rebuilds them.
// There is no background watcher. Searches are safe for concurrent use.
type Index struct {
	root        string
	mode        Mode
	extensions  map[string]bool
	weights     WeightTable
	ignoreFiles []string
	logger      *logging.Logger

	mu        sync.RWMutex
	built     bool
	files     []string
	postings  map[string][]Posting
	nPostings int
}

// Option configures an Index.
type Option func(*Index)

// WithMode selects indexed or rescan scored searches.
func WithMode(m Mode) Option {
	return func(x *Index) { x.mode = m }
}

// WithExtensions replaces the eligible extension set (without dots).
func WithExtensions(exts []string) Option {
	return func(x *Index) {
		x.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			x.extensions[strings.ToLower(strings.TrimPrefix(e, "."))] = true
		}
	}
}

// WithWeights replaces the path bonus table. A nil table disables bonuses
// and prioritization.
func WithWeights(t WeightTable) Option {
	return func(x *Index) { x.weights = t }
}

// WithIgnoreFiles sets the ignore file names read from the corpus root.
func WithIgnoreFiles(names []string) Option {
	return func(x *Index) { x.ignoreFiles = names }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(x *Index) {
		if l != nil {
			x.logger = l
		}
	}
}

// New creates an Index over root. Nothing is read until Build or a search.
func New(root string, opts ...Option) *Index {
	x := &Index{
		root:        filepath.Clean(root),
		mode:        ModeIndexed,
		weights:     DefaultWeights(),
		ignoreFiles: DefaultIgnoreFiles,
		logger:      logging.NewNop(),
	}
	WithExtensions(DefaultExtensions)(x)
	for _, opt := range opts {
		opt(x)
	}
	x.logger = x.logger.Named("corpus")
	return x
}

// Root returns the corpus root.
func (x *Index) Root() string { return x.root }

// Mode returns the configured search mode.
func (x *Index) Mode() Mode { return x.mode }

// Weights returns the path bonus table.
func (x *Index) Weights() WeightTable { return x.weights }

// Build walks the corpus and returns the number of eligible files read.
// Calling it again without Refresh returns the cached count.
func (x *Index) Build(ctx context.Context) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.built {
		return len(x.files), nil
	}
	return x.buildLocked(ctx)
}

// Refresh discards the postings and rebuilds them from disk.
func (x *Index) Refresh(ctx context.Context) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.built = false
	x.files = nil
	x.postings = nil
	x.nPostings = 0
	return x.buildLocked(ctx)
}

// Stats returns the current index statistics.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return Stats{
		Root:     x.root,
		Mode:     x.mode.String(),
		Built:    x.built,
		Files:    len(x.files),
		Terms:    len(x.postings),
		Postings: x.nPostings,
	}
}

// Files returns the indexed file paths in traversal order.
func (x *Index) Files() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]string, len(x.files))
	copy(out, x.files)
	return out
}

// Walk calls fn with the path and text of every eligible file under the
// root, in the same order Build visits them. It stops at the first error
// from fn and returns it. Walk does not require a built index.
func (x *Index) Walk(ctx context.Context, fn func(path, content string) error) error {
	if err := x.checkRoot(); err != nil {
		return err
	}
	var visitErr error
	err := x.walk(ctx, func(path, content string) bool {
		if err := ctx.Err(); err != nil {
			visitErr = err
			return false
		}
		visitErr = fn(path, content)
		return visitErr == nil
	})
	if visitErr != nil {
		return visitErr
	}
	return err
}

func (x *Index) buildLocked(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "corpus.Build")
	defer span.End()

	if err := x.checkRoot(); err != nil {
		x.logger.Error(ctx, "corpus root missing", logging.CorpusRoot(x.root), zap.Error(err))
		return 0, err
	}

	var files []string
	postings := make(map[string][]Posting)
	count := 0

	err := x.walk(ctx, func(path, content string) bool {
		id := uint32(len(files))
		files = append(files, path)
		if x.mode == ModeIndexed {
			for lineNo, line := range splitLines(content) {
				for _, term := range lineTerms(line) {
					postings[term] = append(postings[term], Posting{File: id, Line: uint32(lineNo)})
					count++
				}
			}
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("walking corpus %s: %w", x.root, err)
	}

	x.files = files
	x.postings = postings
	x.nPostings = count
	x.built = true

	FilesIndexed.Set(float64(len(files)))
	PostingsTotal.Set(float64(count))
	span.SetAttributes(
		attribute.Int("corpus.files", len(files)),
		attribute.Int("corpus.postings", count),
	)
	x.logger.Info(ctx, "corpus indexed",
		logging.CorpusRoot(x.root),
		zap.String("mode", x.mode.String()),
		zap.Int("files", len(files)),
		zap.Int("terms", len(postings)),
		zap.Int("postings", count),
	)
	return len(files), nil
}

func (x *Index) checkRoot() error {
	info, err := os.Stat(x.root)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCorpusRootMissing, x.root)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrCorpusRootMissing, x.root)
	}
	return nil
}

// walk calls visit with the path and text of every eligible file in lexical
// traversal order until visit returns false. Unreadable and non-UTF-8 files
// are skipped. A missing root is reported as an error.
func (x *Index) walk(ctx context.Context, visit func(path, content string) bool) error {
	matcher, err := ignore.NewParser(x.ignoreFiles, nil).ParseProject(x.root)
	if err != nil {
		x.logger.Warn(ctx, "reading ignore files failed", zap.Error(err))
		matcher = nil
	}

	return filepath.WalkDir(x.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == x.root {
				return err
			}
			FilesSkipped.WithLabelValues("read").Inc()
			x.logger.Debug(ctx, "skipping unreadable entry", logging.Path(path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(x.root, path)
		if relErr != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			if defaultSkipDirs[d.Name()] || matcher.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !x.eligible(path) || matcher.Match(rel, false) {
			return nil
		}

		content, ok := x.readFile(ctx, path)
		if !ok {
			return nil
		}
		if !visit(path, content) {
			return filepath.SkipAll
		}
		return nil
	})
}

func (x *Index) eligible(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && x.extensions[ext]
}

// readFile returns the file text, or false when it cannot be read as UTF-8.
func (x *Index) readFile(ctx context.Context, path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		FilesSkipped.WithLabelValues("read").Inc()
		x.logger.Debug(ctx, "skipping unreadable file", logging.Path(path), zap.Error(err))
		return "", false
	}
	if !utf8.Valid(data) {
		FilesSkipped.WithLabelValues("encoding").Inc()
		x.logger.Debug(ctx, "skipping non-UTF-8 file", logging.Path(path))
		return "", false
	}
	return string(data), true
}
