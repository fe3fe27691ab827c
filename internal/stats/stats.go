// Package stats aggregates declarations per module.
package stats

import (
	"sort"

	"github.com/phobologic/declmap/internal/model"
)

// Interest score increments used to pick module highlights.
const (
	scoreDocumented = 2
	scoreCallable   = 4
	scoreType       = 3
	scoreShortName  = 1

	shortNameLimit = 24
)

// Interest scores a declaration for highlighting: documented, callable,
// contract or record, and short names each add to it.
func Interest(d *model.Declaration) int {
	s := 0
	if d.Doc != "" {
		s += scoreDocumented
	}
	if d.IsCallable() {
		s += scoreCallable
	}
	if d.IsType() {
		s += scoreType
	}
	if len([]rune(d.Name)) <= shortNameLimit {
		s += scoreShortName
	}
	return s
}

// Summarize describes one module: declaration totals, per-kind counts, the
// sorted files it spans and its highlightCount most interesting
// declarations. An unknown module yields a zero summary.
func Summarize(decls []model.Declaration, module string, highlightCount int) model.ModuleSummary {
	if highlightCount < 0 {
		highlightCount = 0
	}
	sum := model.ModuleSummary{
		Module:     module,
		Counts:     make(map[model.Kind]int),
		Files:      []string{},
		Highlights: []model.Declaration{},
	}

	var members []model.Declaration
	files := make(map[string]bool)
	for _, d := range decls {
		if d.Module != module {
			continue
		}
		members = append(members, d)
		sum.Counts[d.Kind]++
		if !files[d.File] {
			files[d.File] = true
			sum.Files = append(sum.Files, d.File)
		}
	}
	sum.Total = len(members)
	sort.Strings(sum.Files)

	sort.SliceStable(members, func(i, j int) bool {
		a, b := &members[i], &members[j]
		if sa, sb := Interest(a), Interest(b); sa != sb {
			return sa > sb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	if len(members) > highlightCount {
		members = members[:highlightCount]
	}
	sum.Highlights = append(sum.Highlights, members...)
	return sum
}

// Modules returns per-kind counts for every module, sorted by module name.
func Modules(decls []model.Declaration) []model.ModuleStats {
	byModule := make(map[string]*model.ModuleStats)
	for _, d := range decls {
		ms, ok := byModule[d.Module]
		if !ok {
			ms = &model.ModuleStats{Module: d.Module, Counts: make(map[model.Kind]int)}
			byModule[d.Module] = ms
		}
		ms.Counts[d.Kind]++
		ms.Total++
	}

	out := make([]model.ModuleStats, 0, len(byModule))
	for _, ms := range byModule {
		out = append(out, *ms)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}
