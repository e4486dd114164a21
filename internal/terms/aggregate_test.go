package terms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateTermCountsTotals(t *testing.T) {
	a := CountTerms("damn damn gun", nil, nil)
	b := CountTerms("gun knife hell", nil, nil)

	agg := AggregateTermCounts([]Result{a, b})
	assert.Equal(t, a.TotalCount+b.TotalCount, agg.TotalCount)
	assert.Equal(t, agg.TotalCount, sumCategories(agg))
	assert.Equal(t, 3, agg.ByCategory["profanity"])
	assert.Equal(t, 3, agg.ByCategory["violence"])
}

func TestAggregateTermCountsMergesAndCapsPositions(t *testing.T) {
	p := func(s string) Position { return Position{Context: s} }
	a := Result{
		TotalCount: 4,
		ByCategory: map[string]int{"violence": 4},
		Matches: []Match{{Term: "gun", Category: "violence", Count: 4,
			Positions: []Position{p("a1"), p("a2"), p("a3"), p("a4")}}},
	}
	b := Result{
		TotalCount: 1,
		ByCategory: map[string]int{"violence": 1},
		Matches:    []Match{{Term: "gun", Category: "violence", Count: 1, Positions: []Position{p("b1")}}},
	}

	agg := AggregateTermCounts([]Result{a, b})
	require.Len(t, agg.Matches, 1)
	assert.Equal(t, 5, agg.Matches[0].Count)
	assert.Equal(t, []Position{p("a1"), p("a2"), p("b1")}, agg.Matches[0].Positions)
	assert.Len(t, a.Matches[0].Positions, 4, "inputs must not be mutated")
}

func TestAggregateTermCountsKeepsCategoriesApart(t *testing.T) {
	a := Result{TotalCount: 2, ByCategory: map[string]int{"x": 1, "y": 1}, Matches: []Match{
		{Term: "t", Category: "x", Count: 1},
		{Term: "t", Category: "y", Count: 1},
	}}
	agg := AggregateTermCounts([]Result{a})
	assert.Len(t, agg.Matches, 2)
}

func TestAggregateTermCountsOrdering(t *testing.T) {
	r := Result{TotalCount: 7, ByCategory: map[string]int{"c": 7}, Matches: []Match{
		{Term: "beta", Category: "c", Count: 2},
		{Term: "alpha", Category: "c", Count: 2},
		{Term: "gamma", Category: "c", Count: 3},
	}}
	agg := AggregateTermCounts([]Result{r})
	var order []string
	for _, m := range agg.Matches {
		order = append(order, m.Term)
	}
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, order)
}

func TestAggregateTermCountsEmpty(t *testing.T) {
	agg := AggregateTermCounts(nil)
	assert.Equal(t, 0, agg.TotalCount)
	assert.NotNil(t, agg.ByCategory)
	assert.NotNil(t, agg.Matches)
}
