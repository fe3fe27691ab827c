package graph

import (
	"sort"

	"github.com/phobologic/declmap/internal/model"
)

// Source is the read side of a declaration index.
type Source interface {
	Declarations() ([]model.Declaration, error)
	Files() ([]string, error)
	ReadFile(rel string) ([]byte, error)
}

// Analyze reports, for every module, the import paths its files use and the
// names it declares. Modules come from both the collected files and the
// declarations and are returned sorted by name. A read failure aborts the
// analysis.
func Analyze(src Source) ([]model.DependencyInfo, error) {
	decls, err := src.Declarations()
	if err != nil {
		return nil, err
	}
	files, err := src.Files()
	if err != nil {
		return nil, err
	}

	imports := make(map[string]map[string]struct{})
	exports := make(map[string]map[string]struct{})
	touch := func(module string) {
		if imports[module] == nil {
			imports[module] = make(map[string]struct{})
			exports[module] = make(map[string]struct{})
		}
	}

	for _, rel := range files {
		module := model.ModuleOf(rel)
		touch(module)
		data, err := src.ReadFile(rel)
		if err != nil {
			return nil, err
		}
		for _, p := range ExtractImports(data) {
			imports[module][p] = struct{}{}
		}
	}
	for i := range decls {
		d := &decls[i]
		touch(d.Module)
		exports[d.Module][d.Name] = struct{}{}
	}

	infos := make([]model.DependencyInfo, 0, len(imports))
	for _, module := range sortedKeys(imports) {
		infos = append(infos, model.DependencyInfo{
			Module:    module,
			Imports:   sortedKeys(imports[module]),
			Exports:   sortedKeys(exports[module]),
			ReExports: []string{},
		})
	}
	return infos, nil
}

// sortedKeys returns the keys of m in ascending order, never nil.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
