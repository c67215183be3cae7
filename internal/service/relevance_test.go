package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/model"
)

func cand(id string, distance float64) model.RetrievedCandidate {
	return model.RetrievedCandidate{ChunkID: id, Distance: distance, HasDistance: true}
}

func TestFilterByRelevance_StrictThreshold(t *testing.T) {
	in := []model.RetrievedCandidate{
		cand("a", 0.2),
		cand("b", 1.0),
		cand("c", 0.99),
		cand("d", 1.5),
	}
	got := FilterByRelevance(in, 1.0)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ChunkID)
	require.Equal(t, "c", got[1].ChunkID)
}

func TestFilterByRelevance_DropsMissingDistance(t *testing.T) {
	in := []model.RetrievedCandidate{
		{ChunkID: "nodist", Text: "x"},
		cand("ok", 0.1),
	}
	got := FilterByRelevance(in, 1.0)
	require.Len(t, got, 1)
	require.Equal(t, "ok", got[0].ChunkID)
}

func TestFilterByRelevance_PreservesOrder(t *testing.T) {
	in := []model.RetrievedCandidate{
		cand("first", 0.9),
		cand("second", 0.1),
		cand("third", 0.5),
	}
	got := FilterByRelevance(in, 1.0)
	require.Equal(t, []string{"first", "second", "third"},
		[]string{got[0].ChunkID, got[1].ChunkID, got[2].ChunkID})
}

func TestFilterByRelevance_TighterThresholdYieldsSubset(t *testing.T) {
	in := []model.RetrievedCandidate{
		cand("a", 0.3), cand("b", 0.6), cand("c", 0.9), cand("d", 1.2),
	}
	loose := FilterByRelevance(in, 1.0)
	tight := FilterByRelevance(in, 0.5)
	require.Len(t, loose, 3)
	require.Len(t, tight, 1)
	for _, c := range tight {
		require.Contains(t, loose, c)
	}
}

func TestFilterByRelevance_Empty(t *testing.T) {
	require.Empty(t, FilterByRelevance(nil, 1.0))
}
