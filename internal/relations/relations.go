// Package relations infers parent and child links between declarations from
// their text. The links are heuristic: no type checking is done.
package relations

import (
	"sort"
	"strings"

	"github.com/phobologic/declmap/internal/model"
	"github.com/phobologic/declmap/internal/parse"
)

// Find returns the first declaration named name, falling back to the first
// case-insensitive match.
func Find(decls []model.Declaration, name string) (model.Declaration, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d, true
		}
	}
	for _, d := range decls {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return model.Declaration{}, false
}

// Of resolves name and reports its parents and children. For a contract or
// record, parents are the bare exported names on the lines of its block,
// i.e. its embedded types. An alias has no block; its parent is the aliased
// type when Value is a single exported name, so `type Reader = Source`
// reports Source. Children are the other declarations whose text mentions
// the target. ok is false when no declaration matches name.
func Of(decls []model.Declaration, name string) (rel model.Relations, ok bool) {
	target, ok := Find(decls, name)
	if !ok {
		return model.Relations{}, false
	}
	return model.Relations{
		Target:   target,
		Parents:  parents(&target),
		Children: children(decls, &target),
	}, true
}

func parents(d *model.Declaration) []string {
	set := make(map[string]struct{})
	switch d.Kind {
	case model.Contract, model.Record:
		for _, line := range parse.Lines([]byte(d.Block)) {
			t := strings.TrimSpace(parse.StripLineComment(line))
			if model.IsExported(t) && t != d.Name {
				set[t] = struct{}{}
			}
		}
	case model.Alias:
		if v := strings.TrimSpace(d.Value); model.IsExported(v) && v != d.Name {
			set[v] = struct{}{}
		}
	}
	return sorted(set)
}

func children(decls []model.Declaration, target *model.Declaration) []string {
	needle := strings.ToLower(target.Name)
	set := make(map[string]struct{})
	for i := range decls {
		d := &decls[i]
		if sameDecl(d, target) {
			continue
		}
		if strings.Contains(strings.ToLower(d.Text()), needle) {
			set[d.Name] = struct{}{}
		}
	}
	return sorted(set)
}

func sameDecl(a, b *model.Declaration) bool {
	return a.Name == b.Name && a.Kind == b.Kind && a.File == b.File && a.Line == b.Line
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
