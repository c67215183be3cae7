package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/model"
	apperrors "github.com/docsift/docsift/internal/pkg/errors"
)

type fakeStore struct {
	candidates []model.RetrievedCandidate
	queryErr   error
	queries    int
	lastK      int
	lastScope  []string
}

func (s *fakeStore) Upsert(ctx context.Context, chunks []model.TextChunk) error { return nil }

func (s *fakeStore) Query(ctx context.Context, embedding []float32, k int, allowedDocIDs []string) ([]model.RetrievedCandidate, error) {
	s.queries++
	s.lastK = k
	s.lastScope = allowedDocIDs
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.candidates, nil
}

func (s *fakeStore) DeleteByDoc(ctx context.Context, docID string) error { return nil }

func (s *fakeStore) Count(ctx context.Context) (int64, error) { return int64(len(s.candidates)), nil }

type fakeQueryEmbedder struct {
	err error
}

func (e *fakeQueryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

func (e *fakeQueryEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		var err error
		out[i], err = e.Embed(ctx, texts[i], taskType)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *fakeQueryEmbedder) ModelName() string { return "fake-embed" }

type fakeGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "generated answer", nil
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func queryCfg() config.QueryConfig {
	return config.QueryConfig{
		DistanceThreshold: 1.0,
		OversampleFloor:   10,
		DefaultTopK:       5,
		Stateful:          true,
		MaxHistory:        10,
		Sentinel:          "LLM_NO_ANSWER_IN_CONTEXT",
	}
}

func relevantCandidates(n int) []model.RetrievedCandidate {
	out := make([]model.RetrievedCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.RetrievedCandidate{
			ChunkID:     string(rune('a' + i)),
			Text:        "chunk text",
			Distance:    0.1 + float64(i)*0.01,
			HasDistance: true,
		})
	}
	return out
}

func TestQueryServiceAnswer_HappyPath(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(3)}
	gen := &fakeGenerator{responses: []string{"the answer"}}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{Query: "what is it?"})
	require.NoError(t, err)
	require.Equal(t, "the answer", answer)
	require.Equal(t, 1, store.queries)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "chunk text")
	require.Contains(t, gen.prompts[0], "what is it?")
	require.Contains(t, gen.prompts[0], "LLM_NO_ANSWER_IN_CONTEXT")
}

func TestQueryServiceAnswer_OversamplesRetrieval(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(3)}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, &fakeGenerator{}, queryCfg())

	_, err := svc.Answer(context.Background(), model.QueryContext{Query: "q", TopK: 3})
	require.NoError(t, err)
	require.Equal(t, 10, store.lastK)
}

func TestQueryServiceAnswer_TruncatesToTopK(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(8)}
	gen := &fakeGenerator{responses: []string{"ok"}}
	cfg := queryCfg()
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, cfg)

	_, err := svc.Answer(context.Background(), model.QueryContext{Query: "q", TopK: 2})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	require.Equal(t, 2, strings.Count(gen.prompts[0], "---"))
}

func TestQueryServiceAnswer_NoRelevantHitsUsesRetrievalBranch(t *testing.T) {
	store := &fakeStore{candidates: []model.RetrievedCandidate{
		{ChunkID: "far", Text: "noise", Distance: 2.5, HasDistance: true},
	}}
	gen := &fakeGenerator{responses: []string{"Sorry, nothing relevant came up."}}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, "Sorry, nothing relevant came up.", answer)
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "No relevant documents were found")
}

func TestQueryServiceAnswer_SentinelUsesSynthesisBranch(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(2)}
	gen := &fakeGenerator{responses: []string{
		"LLM_NO_ANSWER_IN_CONTEXT",
		"The documents do not cover that.",
	}}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, "The documents do not cover that.", answer)
	require.Len(t, gen.prompts, 2)
	require.Contains(t, gen.prompts[1], "do not contain an answer")
}

func TestQueryServiceAnswer_GeneratorDownFallsBackToFixedMessage(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(2)}
	gen := &fakeGenerator{err: errors.New("model offline")}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, synthesisFallbackMessage, answer)
}

func TestQueryServiceAnswer_FailureBranchDoubleFallback(t *testing.T) {
	store := &fakeStore{candidates: nil}
	gen := &fakeGenerator{err: errors.New("model offline")}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, retrievalFallbackMessage, answer)
}

func TestQueryServiceAnswer_EmptyScopeSkipsStore(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(3)}
	gen := &fakeGenerator{responses: []string{"nothing for you"}}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{
		Query:         "q",
		AllowedDocIDs: []string{},
	})
	require.NoError(t, err)
	require.Equal(t, "nothing for you", answer)
	require.Equal(t, 0, store.queries)
}

func TestQueryServiceAnswer_ScopePassedToStore(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(1)}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, &fakeGenerator{}, queryCfg())

	_, err := svc.Answer(context.Background(), model.QueryContext{
		Query:         "q",
		AllowedDocIDs: []string{"doc1", "doc2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"doc1", "doc2"}, store.lastScope)
}

func TestQueryServiceAnswer_StatelessIgnoresScopeAndHistory(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(1)}
	gen := &fakeGenerator{responses: []string{"ok"}}
	cfg := queryCfg()
	cfg.Stateful = false
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, cfg)

	_, err := svc.Answer(context.Background(), model.QueryContext{
		Query:         "q",
		AllowedDocIDs: []string{},
		History:       []model.Message{{Role: "user", Content: "earlier turn"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.queries)
	require.Nil(t, store.lastScope)
	require.NotContains(t, gen.prompts[0], "earlier turn")
}

func TestQueryServiceAnswer_HistoryInPrompt(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(1)}
	gen := &fakeGenerator{responses: []string{"ok"}}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	_, err := svc.Answer(context.Background(), model.QueryContext{
		Query: "and then?",
		History: []model.Message{
			{Role: "user", Content: "first question"},
			{Role: "assistant", Content: "first answer"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, gen.prompts[0], "user: first question")
	require.Contains(t, gen.prompts[0], "assistant: first answer")
}

func TestQueryServiceAnswer_EmbedFailureIsFatal(t *testing.T) {
	store := &fakeStore{}
	svc := NewQueryService(store, &fakeQueryEmbedder{err: errors.New("quota")}, &fakeGenerator{}, queryCfg())

	_, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.Error(t, err)
	require.True(t, apperrors.IsEmbedding(err))
	require.ErrorIs(t, err, apperrors.ErrQueryProcessing)
	require.Equal(t, 0, store.queries)
}

func TestQueryServiceAnswer_StoreFailureIsFatal(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("store down")}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, &fakeGenerator{}, queryCfg())

	_, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.Error(t, err)
	require.True(t, apperrors.IsStore(err))
	require.ErrorIs(t, err, apperrors.ErrQueryProcessing)
}

func TestQueryServiceAnswer_NeverEmpty(t *testing.T) {
	store := &fakeStore{candidates: relevantCandidates(1)}
	gen := &fakeGenerator{responses: []string{"   "}}
	svc := NewQueryService(store, &fakeQueryEmbedder{}, gen, queryCfg())

	answer, err := svc.Answer(context.Background(), model.QueryContext{Query: "q"})
	require.NoError(t, err)
	require.NotEmpty(t, answer)
}
