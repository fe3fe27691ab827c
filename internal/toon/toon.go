// Package toon renders query results in TOON (Token-Oriented Object
// Notation), a compact tabular text format.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/declmap/internal/graph"
	"github.com/phobologic/declmap/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeDeclarations renders declarations as one table.
func EncodeDeclarations(decls []model.Declaration) string {
	return formatTabular("declarations", []string{"file", "line", "module", "kind", "name", "signature"}, declRows(decls))
}

func declRows(decls []model.Declaration) [][]string {
	var rows [][]string
	for i := range decls {
		d := &decls[i]
		rows = append(rows, []string{
			d.File,
			strconv.Itoa(d.Line),
			d.Module,
			string(d.Kind),
			d.Name,
			d.Signature,
		})
	}
	return rows
}

// EncodeResults renders ranked search results for query.
func EncodeResults(query string, results []model.RankedResult) string {
	var rows [][]string
	for i := range results {
		r := &results[i]
		d := &r.Declaration
		rows = append(rows, []string{
			strconv.Itoa(r.Score),
			strings.Join(r.Matched, " "),
			string(d.Kind),
			d.Name,
			d.File,
			strconv.Itoa(d.Line),
			d.Signature,
		})
	}
	return strings.Join([]string{
		fmt.Sprintf("query: %s", encodeValue(query)),
		formatTabular("results", []string{"score", "matched", "kind", "name", "file", "line", "signature"}, rows),
	}, "\n")
}

// EncodeDeclaration renders one declaration in full, including its block
// and members.
func EncodeDeclaration(d *model.Declaration) string {
	parts := []string{
		fmt.Sprintf("name: %s", encodeValue(d.Name)),
		fmt.Sprintf("kind: %s", encodeValue(string(d.Kind))),
		fmt.Sprintf("module: %s", encodeValue(d.Module)),
		fmt.Sprintf("file: %s", encodeValue(d.File)),
		fmt.Sprintf("line: %d", d.Line),
		fmt.Sprintf("signature: %s", encodeValue(d.Signature)),
	}
	if d.Receiver != "" {
		parts = append(parts, fmt.Sprintf("receiver: %s", encodeValue(d.Receiver)))
	}
	if d.Value != "" {
		parts = append(parts, fmt.Sprintf("value: %s", encodeValue(d.Value)))
	}
	if d.Doc != "" {
		parts = append(parts, fmt.Sprintf("doc: %s", encodeValue(d.Doc)))
	}
	if d.Block != "" {
		parts = append(parts, fmt.Sprintf("block: %s", encodeValue(d.Block)))
	}
	if len(d.Members) > 0 {
		var rows [][]string
		for _, m := range d.Members {
			kind := "field"
			if m.IsMethod {
				kind = "method"
			}
			rows = append(rows, []string{m.Name, kind, m.Params, m.Type})
		}
		parts = append(parts, formatTabular("members", []string{"name", "kind", "params", "type"}, rows))
	}
	return strings.Join(parts, "\n")
}

// EncodeSummary renders a module summary.
func EncodeSummary(s *model.ModuleSummary) string {
	parts := []string{
		fmt.Sprintf("module: %s", encodeValue(s.Module)),
		fmt.Sprintf("total: %d", s.Total),
		formatTabular("counts", []string{"kind", "count"}, countRows(s.Counts)),
	}
	var fileRows [][]string
	for _, f := range s.Files {
		fileRows = append(fileRows, []string{f})
	}
	parts = append(parts, formatTabular("files", []string{"path"}, fileRows))
	parts = append(parts, formatTabular("highlights", []string{"file", "line", "module", "kind", "name", "signature"}, declRows(s.Highlights)))
	return strings.Join(parts, "\n")
}

func countRows(counts map[model.Kind]int) [][]string {
	var rows [][]string
	for _, k := range model.Kinds {
		if n := counts[k]; n > 0 {
			rows = append(rows, []string{string(k), strconv.Itoa(n)})
		}
	}
	return rows
}

// EncodeModules renders per-module statistics, one column per kind.
func EncodeModules(stats []model.ModuleStats) string {
	columns := []string{"module", "total"}
	for _, k := range model.Kinds {
		columns = append(columns, string(k))
	}
	var rows [][]string
	for i := range stats {
		s := &stats[i]
		row := []string{s.Module, strconv.Itoa(s.Total)}
		for _, k := range model.Kinds {
			row = append(row, strconv.Itoa(s.Counts[k]))
		}
		rows = append(rows, row)
	}
	return formatTabular("modules", columns, rows)
}

// EncodeDependencies renders the per-module dependency report.
func EncodeDependencies(infos []model.DependencyInfo) string {
	var rows [][]string
	for i := range infos {
		info := &infos[i]
		rows = append(rows, []string{
			info.Module,
			strings.Join(info.Imports, " "),
			strings.Join(info.Exports, " "),
		})
	}
	return formatTabular("dependencies", []string{"module", "imports", "exports"}, rows)
}

// EncodeModuleGraph renders internal module edges, a dependency-first
// order (omitted when cycles prevent one), the cycles and module ranks.
func EncodeModuleGraph(edges []graph.Edge, order []string, cycles [][]string, ranks []graph.ModuleRank) string {
	var edgeRows [][]string
	for _, e := range edges {
		edgeRows = append(edgeRows, []string{e.From, e.To})
	}
	parts := []string{formatTabular("edges", []string{"from", "to"}, edgeRows)}

	if order != nil {
		encoded := make([]string, len(order))
		for i, m := range order {
			encoded[i] = encodeValue(m)
		}
		parts = append(parts, fmt.Sprintf("order[%d]: %s", len(order), strings.Join(encoded, ",")))
	}

	var cycleRows [][]string
	for _, c := range cycles {
		cycleRows = append(cycleRows, []string{strings.Join(c, " ")})
	}
	parts = append(parts, formatTabular("cycles", []string{"modules"}, cycleRows))

	var rankRows [][]string
	for _, r := range ranks {
		rankRows = append(rankRows, []string{r.Module, fmt.Sprintf("%.4f", r.Rank)})
	}
	parts = append(parts, formatTabular("ranks", []string{"module", "rank"}, rankRows))
	return strings.Join(parts, "\n")
}

// EncodeRelations renders the parents and children of a declaration.
func EncodeRelations(r *model.Relations) string {
	list := func(name string, items []string) string {
		if len(items) == 0 {
			return name + "[0]:"
		}
		encoded := make([]string, len(items))
		for i, it := range items {
			encoded[i] = encodeValue(it)
		}
		return fmt.Sprintf("%s[%d]: %s", name, len(items), strings.Join(encoded, ","))
	}
	return strings.Join([]string{
		fmt.Sprintf("target: %s", encodeValue(r.Target.Name)),
		fmt.Sprintf("kind: %s", encodeValue(string(r.Target.Kind))),
		fmt.Sprintf("file: %s", encodeValue(r.Target.File)),
		list("parents", r.Parents),
		list("children", r.Children),
	}, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
