package ranking

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/declmap/internal/model"
)

func decl(name string, kind model.Kind, file string, line int) model.Declaration {
	return model.Declaration{
		Name:      name,
		Kind:      kind,
		File:      file,
		Module:    model.ModuleOf(file),
		Signature: "func " + name + "()",
		Line:      line,
	}
}

func resultNames(rs []model.RankedResult) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Declaration.Name)
	}
	return out
}

func TestRankExactBeatsSubstring(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		decl("StoreItem", model.Function, "a.go", 1),
		decl("Store", model.Contract, "b.go", 1),
	}
	got := Rank(decls, "store", 10, Filters{})
	require.Len(t, got, 2)
	assert.Equal(t, "Store", got[0].Declaration.Name)
	assert.Equal(t, []string{LabelNameExact, LabelName, LabelSignature}, got[0].Matched)
	assert.Equal(t, WeightNameExact+WeightSignature, got[0].Score)
	assert.Equal(t, WeightName+WeightSignature, got[1].Score)
}

func TestRankNameBeatsFile(t *testing.T) {
	t.Parallel()

	byName := model.Declaration{Name: "Parser", Kind: model.Record, File: "x.go", Module: "root", Signature: "type Parser struct {"}
	byFile := model.Declaration{Name: "Tokens", Kind: model.Record, File: "parser/tokens.go", Module: "lexer", Signature: "type Tokens struct {"}

	got := Rank([]model.Declaration{byFile, byName}, "pars", 10, Filters{})
	require.Len(t, got, 2)
	assert.Equal(t, "Parser", got[0].Declaration.Name)
	assert.Greater(t, got[0].Score, got[1].Score)
	assert.Equal(t, []string{LabelFile}, got[1].Matched)
}

func TestRankWeightOrder(t *testing.T) {
	t.Parallel()

	assert.Greater(t, WeightNameExact, WeightName)
	assert.Greater(t, WeightName, WeightSignature)
	assert.Greater(t, WeightSignature, WeightModule)
	assert.Equal(t, WeightModule, WeightDoc)
	assert.Greater(t, WeightModule, WeightFile)
	assert.Equal(t, WeightFile, WeightKind)
}

func TestRankTermsAccumulate(t *testing.T) {
	t.Parallel()

	d := model.Declaration{
		Name:      "Open",
		Kind:      model.Function,
		File:      "store/open.go",
		Module:    "store",
		Signature: "func Open(path string) (*DB, error)",
		Doc:       "Open opens the database file.",
	}
	got := Rank([]model.Declaration{d}, "  OPEN   store ", 5, Filters{})
	require.Len(t, got, 1)
	// open: exact 100 + signature 20 + doc 10 + file 5
	// store: module 10 + file 5
	assert.Equal(t, 150, got[0].Score)
	assert.Equal(t, []string{LabelNameExact, LabelName, LabelSignature, LabelModule, LabelDoc, LabelFile}, got[0].Matched)
}

func TestRankStableUnderReordering(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		decl("Get", model.Method, "b/b.go", 3),
		decl("Get", model.Method, "a/a.go", 9),
		decl("GetAll", model.Function, "a/a.go", 1),
		decl("Getter", model.Contract, "c.go", 2),
		decl("Target", model.Function, "c.go", 7),
		decl("Get", model.Method, "a/a.go", 2),
	}
	want := Rank(decls, "get", 10, Filters{})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.Declaration(nil), decls...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Rank(shuffled, "get", 10, Filters{}))
	}

	assert.Equal(t, []string{"Get", "Get", "Get", "GetAll", "Getter", "Target"}, resultNames(want))
	assert.Equal(t, "a/a.go", want[0].Declaration.File)
	assert.Equal(t, 2, want[0].Declaration.Line)
}

func TestRankLimitClamp(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{decl("A1", model.Function, "a.go", 1), decl("A2", model.Function, "a.go", 2)}
	assert.Len(t, Rank(decls, "a", 0, Filters{}), 1)
	assert.Len(t, Rank(decls, "a", -5, Filters{}), 1)
	assert.Len(t, Rank(decls, "a", 1, Filters{}), 1)
	assert.Len(t, Rank(decls, "a", 50, Filters{}), 2)
}

func TestRankEmptyQuery(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{decl("B", model.Function, "a.go", 1), decl("A", model.Function, "a.go", 2)}
	got := Rank(decls, "   ", 10, Filters{})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"A", "B"}, resultNames(got))
	for _, r := range got {
		assert.Zero(t, r.Score)
		assert.Empty(t, r.Matched)
	}
}

func TestRankDropsNonMatches(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{decl("Alpha", model.Function, "a.go", 1)}
	assert.Empty(t, Rank(decls, "zzz", 10, Filters{}))
}

func TestRankFilters(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		decl("Run", model.Function, "cmd/run.go", 1),
		decl("Run", model.Method, "worker/pool.go", 4),
		decl("Runner", model.Contract, "worker/pool.go", 1),
	}

	got := Rank(decls, "run", 10, Filters{Module: "WORKER"})
	assert.Equal(t, []string{"Run", "Runner"}, resultNames(got))

	got = Rank(decls, "run", 10, Filters{Kind: model.Function})
	require.Len(t, got, 1)
	assert.Equal(t, "cmd/run.go", got[0].Declaration.File)

	assert.Empty(t, Rank(decls, "run", 10, Filters{Module: "nope"}))
}

func TestRankDeduplicates(t *testing.T) {
	t.Parallel()

	d := decl("Dup", model.Function, "a.go", 1)
	assert.Len(t, Rank([]model.Declaration{d, d, d}, "dup", 10, Filters{}), 1)
}

type countingSource struct {
	decls []model.Declaration
	err   error
	calls int
}

func (s *countingSource) Declarations() ([]model.Declaration, error) {
	s.calls++
	return s.decls, s.err
}

func TestRankerCaches(t *testing.T) {
	t.Parallel()

	src := &countingSource{decls: []model.Declaration{decl("Alpha", model.Function, "a.go", 1)}}
	r, err := NewRanker(src, 16)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Rank("alpha", 5, Filters{})
	require.NoError(t, err)
	second, err := r.Rank("  ALPHA ", 5, Filters{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)

	_, err = r.Rank("alpha", 6, Filters{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestRankerResultsDoNotAliasCache(t *testing.T) {
	t.Parallel()

	d := decl("Alpha", model.Record, "a.go", 1)
	d.Members = []model.Member{{Name: "ID", Type: "int"}}
	src := &countingSource{decls: []model.Declaration{d}}
	r, err := NewRanker(src, 16)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Rank("alpha", 5, Filters{})
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Matched[0] = "changed"
	first[0].Declaration.Members[0].Name = "changed"

	second, err := r.Rank("alpha", 5, Filters{})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, LabelNameExact, second[0].Matched[0])
	assert.Equal(t, "ID", second[0].Declaration.Members[0].Name)
	assert.Equal(t, "ID", src.decls[0].Members[0].Name)
}

func TestRankerWithoutCache(t *testing.T) {
	t.Parallel()

	src := &countingSource{decls: []model.Declaration{decl("Alpha", model.Function, "a.go", 1)}}
	r, err := NewRanker(src, 0)
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 3; i++ {
		got, err := r.Rank("alpha", 5, Filters{})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 3, src.calls)
}

func TestRankerSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r, err := NewRanker(&countingSource{err: boom}, 4)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Rank("x", 1, Filters{})
	assert.ErrorIs(t, err, boom)
}
