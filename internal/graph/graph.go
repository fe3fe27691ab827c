// Package graph derives inter-module dependencies from import statements
// and ranks modules by how central they are to the import graph.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/phobologic/declmap/internal/model"
)

// Edge is a directed module dependency: From imports To.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ModuleRank is a module's PageRank in the import graph.
type ModuleRank struct {
	Module string  `json:"module" yaml:"module"`
	Rank   float64 `json:"rank" yaml:"rank"`
}

// ModuleGraph is the directed graph of imports between modules of the same
// Go module.
type ModuleGraph struct {
	g       graph.Graph[string, string]
	modules []string
}

// BuildModuleGraph connects modules whose files import packages that live in
// another known module. rootPath is the import path of the scanned root,
// which is deeper than the module path when go.mod sits above the root.
// Imports outside rootPath and imports of the importing module itself add
// no edge.
func BuildModuleGraph(infos []model.DependencyInfo, rootPath string) (*ModuleGraph, error) {
	g := graph.New(graph.StringHash, graph.Directed())
	known := make(map[string]bool, len(infos))
	mg := &ModuleGraph{g: g}

	for _, info := range infos {
		if known[info.Module] {
			continue
		}
		known[info.Module] = true
		mg.modules = append(mg.modules, info.Module)
		if err := g.AddVertex(info.Module); err != nil {
			return nil, fmt.Errorf("adding module %s: %w", info.Module, err)
		}
	}
	sort.Strings(mg.modules)

	if rootPath == "" {
		return mg, nil
	}
	for _, info := range infos {
		for _, imp := range info.Imports {
			target, ok := internalModule(imp, rootPath)
			if !ok || target == info.Module || !known[target] {
				continue
			}
			if err := g.AddEdge(info.Module, target); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("adding edge %s -> %s: %w", info.Module, target, err)
			}
		}
	}
	return mg, nil
}

// internalModule maps an import path under rootPath to the module holding
// it: the first path segment after rootPath, or the root module.
func internalModule(imp, rootPath string) (string, bool) {
	if imp == rootPath {
		return model.RootModule, true
	}
	rest, ok := strings.CutPrefix(imp, rootPath+"/")
	if !ok || rest == "" {
		return "", false
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}

// Modules returns the sorted module names.
func (m *ModuleGraph) Modules() []string {
	return m.modules
}

// Edges returns every dependency edge sorted by From, then To.
func (m *ModuleGraph) Edges() ([]Edge, error) {
	raw, err := m.g.Edges()
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}
	edges := make([]Edge, 0, len(raw))
	for _, e := range raw {
		edges = append(edges, Edge{From: e.Source, To: e.Target})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges, nil
}

// Order returns the modules with every module after the modules it imports.
// Ties are broken by name. It fails when the graph has a cycle.
func (m *ModuleGraph) Order() ([]string, error) {
	rev := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, mod := range m.modules {
		if err := rev.AddVertex(mod); err != nil {
			return nil, fmt.Errorf("adding module %s: %w", mod, err)
		}
	}
	edges, err := m.Edges()
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if err := rev.AddEdge(e.To, e.From); err != nil {
			return nil, fmt.Errorf("import cycle through %s and %s: %w", e.From, e.To, err)
		}
	}
	order, err := graph.StableTopologicalSort(rev, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("ordering modules: %w", err)
	}
	return order, nil
}

// Cycles returns every group of two or more modules that import each other,
// directly or transitively. Each group and the list are sorted.
func (m *ModuleGraph) Cycles() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(m.g)
	if err != nil {
		return nil, fmt.Errorf("finding cycles: %w", err)
	}
	cycles := [][]string{}
	for _, c := range sccs {
		if len(c) < 2 {
			continue
		}
		c = append([]string(nil), c...)
		sort.Strings(c)
		cycles = append(cycles, c)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

// Rank computes PageRank over the import graph and returns modules sorted by
// rank descending, then name. Heavily imported modules rank highest. With no
// edges every module gets the same rank.
func (m *ModuleGraph) Rank() ([]ModuleRank, error) {
	n := len(m.modules)
	if n == 0 {
		return nil, nil
	}
	adj, err := m.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("reading adjacency: %w", err)
	}

	outEdges := make(map[string][]string, n)
	for src, targets := range adj {
		for tgt := range targets {
			outEdges[src] = append(outEdges[src], tgt)
		}
	}
	ranks := pageRank(m.modules, outEdges, 0.85, 100, 1e-6)

	out := make([]ModuleRank, 0, n)
	for _, mod := range m.modules {
		out = append(out, ModuleRank{Module: mod, Rank: ranks[mod]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank > out[j].Rank
		}
		return out[i].Module < out[j].Module
	})
	return out, nil
}

func pageRank(
	nodes []string,
	outEdges map[string][]string,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for _, node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling modules import nothing and spread their rank evenly.
		var danglingSum float64
		for _, node := range nodes {
			if len(outEdges[node]) == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for _, node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for src, targets := range outEdges {
			contrib := alpha * rank[src] / float64(len(targets))
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for _, node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}
