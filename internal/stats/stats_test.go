package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/declmap/internal/model"
)

func sample() []model.Declaration {
	return []model.Declaration{
		{Name: "Limit", Kind: model.Constant, File: "store/const.go", Module: "store"},
		{Name: "Store", Kind: model.Contract, File: "store/store.go", Module: "store", Doc: "Store persists."},
		{Name: "Open", Kind: model.Function, File: "store/store.go", Module: "store"},
		{Name: "Get", Kind: model.Method, File: "store/mem.go", Module: "store", Doc: "Get reads."},
		{Name: "Mem", Kind: model.Record, File: "store/mem.go", Module: "store"},
		{Name: "Main", Kind: model.Function, File: "main.go", Module: "root"},
	}
}

func highlightNames(s model.ModuleSummary) []string {
	var out []string
	for _, d := range s.Highlights {
		out = append(out, d.Name)
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(sample(), "store", 3)
	assert.Equal(t, "store", s.Module)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, map[model.Kind]int{
		model.Constant: 1,
		model.Contract: 1,
		model.Function: 1,
		model.Method:   1,
		model.Record:   1,
	}, s.Counts)
	assert.Equal(t, []string{"store/const.go", "store/mem.go", "store/store.go"}, s.Files)
	// Get 7, Store 6, Open 5, Mem 4, Limit 1
	assert.Equal(t, []string{"Get", "Store", "Open"}, highlightNames(s))
}

func TestSummarizeTotalsMatchCounts(t *testing.T) {
	t.Parallel()

	s := Summarize(sample(), "store", 10)
	sum := 0
	for _, n := range s.Counts {
		sum += n
	}
	assert.Equal(t, s.Total, sum)
	assert.Len(t, s.Highlights, 5)
}

func TestSummarizeTiesByName(t *testing.T) {
	t.Parallel()

	decls := []model.Declaration{
		{Name: "Zeta", Kind: model.Function, File: "a.go", Module: "root"},
		{Name: "Alpha", Kind: model.Function, File: "b.go", Module: "root"},
	}
	assert.Equal(t, []string{"Alpha", "Zeta"}, highlightNames(Summarize(decls, "root", 2)))
}

func TestSummarizeLongNamesScoreLower(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("A", 25)
	decls := []model.Declaration{
		{Name: long, Kind: model.Function, File: "a.go", Module: "root"},
		{Name: "Zed", Kind: model.Function, File: "a.go", Module: "root"},
	}
	assert.Equal(t, []string{"Zed", long}, highlightNames(Summarize(decls, "root", 2)))
}

func TestSummarizeUnknownModule(t *testing.T) {
	t.Parallel()

	s := Summarize(sample(), "nope", 5)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Counts)
	assert.Empty(t, s.Files)
	assert.Empty(t, s.Highlights)
}

func TestSummarizeNegativeHighlights(t *testing.T) {
	t.Parallel()

	s := Summarize(sample(), "store", -1)
	assert.Equal(t, 5, s.Total)
	assert.Empty(t, s.Highlights)
}

func TestModules(t *testing.T) {
	t.Parallel()

	got := Modules(sample())
	require.Len(t, got, 2)
	assert.Equal(t, "root", got[0].Module)
	assert.Equal(t, 1, got[0].Total)
	assert.Equal(t, "store", got[1].Module)
	assert.Equal(t, 5, got[1].Total)
	assert.Equal(t, 1, got[1].Counts[model.Method])

	assert.Empty(t, Modules(nil))
}
