// Package importer reads ledger uploads into raw tables and manages the
// project's import directory.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/recon/internal/logging"
	"github.com/cleared-dev/recon/internal/model"
)

// Parser converts an uploaded file into a raw table. name labels the table
// in errors.
type Parser interface {
	Parse(r io.Reader, name string) (*model.Table, error)
	Format() string
}

// Registry holds parsers keyed by file format.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes an upload in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists registered formats in sorted order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ParserFor picks a parser by the file's extension.
func (r *Registry) ParserFor(path string) (Parser, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	p := r.Get(ext)
	if p == nil {
		return nil, fmt.Errorf("unsupported file type %q for %s (supported: %s)",
			ext, filepath.Base(path), strings.Join(r.Formats(), ", "))
	}
	return p, nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{})
	r.Register(&XLSXParser{})
	return r
}

// FileLoader loads uploads from disk through a Registry.
type FileLoader struct {
	Registry *Registry
}

// NewFileLoader creates a loader backed by DefaultRegistry.
func NewFileLoader() *FileLoader {
	return &FileLoader{Registry: DefaultRegistry()}
}

// Load opens path and parses it with the parser matching its extension.
func (l *FileLoader) Load(ctx context.Context, path string) (*model.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.Registry.ParserFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	t, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	logging.FromContext(ctx).Debug().
		Str("file", path).
		Str("format", p.Format()).
		Int("columns", len(t.Columns)).
		Int("rows", len(t.Rows)).
		Msg("loaded upload")
	return t, nil
}

// importDir is the subdirectory for uploads.
const importDir = "import"

// processedDir is the subdirectory for processed uploads.
const processedDir = "import/processed"

// ImportDir returns <repoRoot>/import.
func ImportDir(repoRoot string) string {
	return filepath.Join(repoRoot, importDir)
}

// ProcessedDir returns <repoRoot>/import/processed.
func ProcessedDir(repoRoot string) string {
	return filepath.Join(repoRoot, processedDir)
}

// Scan returns the uploads in <repoRoot>/import/ that a registered parser
// can read, sorted by name.
func Scan(repoRoot string, reg *Registry) ([]FileInfo, error) {
	dir := ImportDir(repoRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if reg.Get(strings.TrimPrefix(filepath.Ext(e.Name()), ".")) == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := ProcessedDir(repoRoot)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
