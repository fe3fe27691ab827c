package graph

import (
	"regexp"
	"strings"

	"github.com/phobologic/declmap/internal/parse"
)

var (
	importLineRe  = regexp.MustCompile(`^import\s+(?:([A-Za-z_]\w*|\.|_)\s+)?["` + "`" + `]([^"` + "`" + `]+)["` + "`" + `]`)
	importBlockRe = regexp.MustCompile(`^import\s*\(`)
	importSpecRe  = regexp.MustCompile(`^(?:([A-Za-z_]\w*|\.|_)\s+)?["` + "`" + `]([^"` + "`" + `]+)["` + "`" + `]`)
	declStartRe   = regexp.MustCompile(`^(func|type|var|const)\b`)
)

// ExtractImports returns the import paths of a Go source file in the order
// they appear. Both `import "p"` and parenthesized import blocks are
// recognized, with or without an alias. Scanning stops at the first
// top-level declaration.
func ExtractImports(src []byte) []string {
	var paths []string
	inBlock := false

	for _, raw := range parse.Lines(src) {
		line := strings.TrimSpace(parse.StripLineComment(raw))
		if line == "" {
			continue
		}

		if inBlock {
			inBlock = !strings.HasSuffix(line, ")")
			paths = append(paths, specPaths(line)...)
			continue
		}

		if loc := importBlockRe.FindStringIndex(line); loc != nil {
			rest := line[loc[1]:]
			inBlock = !strings.HasSuffix(rest, ")")
			paths = append(paths, specPaths(rest)...)
			continue
		}
		if m := importLineRe.FindStringSubmatch(line); m != nil {
			paths = append(paths, m[2])
			continue
		}
		if declStartRe.MatchString(line) {
			break
		}
	}
	return paths
}

// specPaths extracts the paths from one line of import specs, which may
// hold several specs separated by semicolons and the closing parenthesis.
func specPaths(line string) []string {
	var out []string
	for _, spec := range strings.Split(strings.TrimSuffix(line, ")"), ";") {
		if m := importSpecRe.FindStringSubmatch(strings.TrimSpace(spec)); m != nil {
			out = append(out, m[2])
		}
	}
	return out
}
