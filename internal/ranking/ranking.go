// Package ranking scores declarations against a free-text query.
package ranking

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/maypok86/otter"

	"github.com/phobologic/declmap/internal/model"
)

// Per-term weights. The relative order is part of the contract:
// exact name > name > signature > module = doc > file = kind.
const (
	WeightNameExact = 100
	WeightName      = 50
	WeightSignature = 20
	WeightModule    = 10
	WeightDoc       = 10
	WeightFile      = 5
	WeightKind      = 5
)

// Signal labels recorded on a RankedResult.
const (
	LabelNameExact = "name-exact"
	LabelName      = "name"
	LabelSignature = "signature"
	LabelModule    = "module"
	LabelDoc       = "doc"
	LabelFile      = "file"
	LabelKind      = "kind"
)

type signal uint8

const (
	sigNameExact signal = 1 << iota
	sigName
	sigSignature
	sigModule
	sigDoc
	sigFile
	sigKind
)

var labels = []struct {
	sig   signal
	label string
}{
	{sigNameExact, LabelNameExact},
	{sigName, LabelName},
	{sigSignature, LabelSignature},
	{sigModule, LabelModule},
	{sigDoc, LabelDoc},
	{sigFile, LabelFile},
	{sigKind, LabelKind},
}

// Filters restrict the candidate set before scoring. Zero fields match all.
type Filters struct {
	// Module matches case-insensitively.
	Module string
	Kind   model.Kind
}

func (f Filters) keep(d *model.Declaration) bool {
	if f.Module != "" && !strings.EqualFold(d.Module, f.Module) {
		return false
	}
	if f.Kind != "" && d.Kind != f.Kind {
		return false
	}
	return true
}

// Terms lowercases query and splits it on whitespace.
func Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// lowered holds the lowercased searchable fields of one declaration.
type lowered struct {
	name, signature, doc, file, module, kind string
}

func lower(d *model.Declaration) lowered {
	return lowered{
		name:      strings.ToLower(d.Name),
		signature: strings.ToLower(d.Signature),
		doc:       strings.ToLower(d.Doc),
		file:      strings.ToLower(d.File),
		module:    strings.ToLower(d.Module),
		kind:      strings.ToLower(string(d.Kind)),
	}
}

// score sums the weights of every field each term matches.
func score(f lowered, terms []string) (int, signal) {
	total := 0
	var sigs signal
	for _, t := range terms {
		switch {
		case f.name == t:
			total += WeightNameExact
			sigs |= sigNameExact | sigName
		case strings.Contains(f.name, t):
			total += WeightName
			sigs |= sigName
		}
		if strings.Contains(f.signature, t) {
			total += WeightSignature
			sigs |= sigSignature
		}
		if strings.Contains(f.module, t) {
			total += WeightModule
			sigs |= sigModule
		}
		if f.doc != "" && strings.Contains(f.doc, t) {
			total += WeightDoc
			sigs |= sigDoc
		}
		if strings.Contains(f.file, t) {
			total += WeightFile
			sigs |= sigFile
		}
		if strings.Contains(f.kind, t) {
			total += WeightKind
			sigs |= sigKind
		}
	}
	return total, sigs
}

func (s signal) labels() []string {
	out := []string{}
	for _, l := range labels {
		if s&l.sig != 0 {
			out = append(out, l.label)
		}
	}
	return out
}

type dedupKey struct {
	file string
	line int
	name string
	kind model.Kind
}

// Rank scores decls against query and returns at most limit results ordered
// by score descending, then name, file and line ascending. A limit below one
// is treated as one. Declarations scoring zero are dropped unless the query
// has no terms, in which case every candidate is returned with score zero.
func Rank(decls []model.Declaration, query string, limit int, f Filters) []model.RankedResult {
	if limit < 1 {
		limit = 1
	}
	terms := Terms(query)

	seen := make(map[dedupKey]bool)
	var results []model.RankedResult
	for i := range decls {
		d := &decls[i]
		if !f.keep(d) {
			continue
		}
		key := dedupKey{d.File, d.Line, d.Name, d.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true

		total, sigs := score(lower(d), terms)
		if total == 0 && len(terms) > 0 {
			continue
		}
		results = append(results, model.RankedResult{
			Declaration: *d,
			Score:       total,
			Matched:     sigs.labels(),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Declaration.Name != b.Declaration.Name {
			return a.Declaration.Name < b.Declaration.Name
		}
		if a.Declaration.File != b.Declaration.File {
			return a.Declaration.File < b.Declaration.File
		}
		return a.Declaration.Line < b.Declaration.Line
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Source provides the declarations to rank.
type Source interface {
	Declarations() ([]model.Declaration, error)
}

// Ranker ranks the declarations of a Source and caches results per query.
// The Source must not change after the first call.
type Ranker struct {
	src    Source
	cache  otter.Cache[string, []model.RankedResult]
	cached bool
}

// NewRanker returns a Ranker over src. A cacheSize below one disables the
// result cache.
func NewRanker(src Source, cacheSize int) (*Ranker, error) {
	r := &Ranker{src: src}
	if cacheSize < 1 {
		return r, nil
	}
	cache, err := otter.MustBuilder[string, []model.RankedResult](cacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("building rank cache: %w", err)
	}
	r.cache = cache
	r.cached = true
	return r, nil
}

// Rank is the cached form of the package-level Rank.
func (r *Ranker) Rank(query string, limit int, f Filters) ([]model.RankedResult, error) {
	if limit < 1 {
		limit = 1
	}
	key := cacheKey(query, limit, f)
	if r.cached {
		if hit, ok := r.cache.Get(key); ok {
			return cloneResults(hit), nil
		}
	}

	decls, err := r.src.Declarations()
	if err != nil {
		return nil, err
	}
	results := Rank(decls, query, limit, f)
	if r.cached {
		r.cache.Set(key, results)
	}
	return cloneResults(results), nil
}

// cloneResults copies results deeply enough that callers cannot reach the
// cached slices.
func cloneResults(results []model.RankedResult) []model.RankedResult {
	out := slices.Clone(results)
	for i := range out {
		out[i].Matched = slices.Clone(out[i].Matched)
		out[i].Declaration.Members = slices.Clone(out[i].Declaration.Members)
	}
	return out
}

// Close releases the cache.
func (r *Ranker) Close() {
	if r.cached {
		r.cache.Close()
	}
}

func cacheKey(query string, limit int, f Filters) string {
	return fmt.Sprintf("%d\x00%s\x00%s\x00%s",
		limit, strings.Join(Terms(query), " "), strings.ToLower(f.Module), f.Kind)
}
