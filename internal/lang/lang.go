// Package lang extracts declarations with a tree-sitter Go grammar. It is the
// syntax-tree alternative to the line-oriented scanner in package parse and
// produces the same declaration shapes.
package lang

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/declmap/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Scanner parses Go files with a single tree-sitter parser.
// A Scanner is not safe for concurrent use; give each goroutine its own.
type Scanner struct {
	parser *sitter.Parser
}

// NewScanner returns a Scanner for Go source.
func NewScanner() *Scanner {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &Scanner{parser: p}
}

// Close releases the underlying parser.
func (s *Scanner) Close() {
	s.parser.Close()
}

// Scan is a convenience wrapper that parses one file with a fresh Scanner.
func Scan(ctx context.Context, source []byte, relPath string) ([]model.Declaration, error) {
	s := NewScanner()
	defer s.Close()
	return s.Scan(ctx, source, relPath)
}

// Scan extracts the exported top-level declarations of one file.
func (s *Scanner) Scan(ctx context.Context, source []byte, relPath string) ([]model.Declaration, error) {
	if len(source) == 0 {
		return nil, nil
	}
	tree, err := s.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relPath, err)
	}
	defer tree.Close()

	x := &extractor{source: source, file: relPath}
	x.walk(tree.RootNode())
	return x.decls, nil
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// firstLine returns text up to the first newline.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
