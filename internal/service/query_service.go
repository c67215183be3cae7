package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docsift/docsift/internal/ai"
	"github.com/docsift/docsift/internal/config"
	"github.com/docsift/docsift/internal/model"
	apperrors "github.com/docsift/docsift/internal/pkg/errors"
	"github.com/docsift/docsift/internal/vectorstore"
)

const (
	retrievalFallbackMessage = "I'm sorry, I couldn't find any relevant information for your question."
	synthesisFallbackMessage = "I'm sorry, I couldn't find an answer to your question in the available documents."
)

// QueryService answers user questions over the ingested corpus. Retrieval
// and synthesis fail independently: a query that matches no relevant chunks
// and a query whose context cannot support an answer both resolve to a
// user-facing message instead of an error.
type QueryService struct {
	store     vectorstore.Store
	embedder  ai.IEmbedder
	generator ai.IGenerator
	cfg       config.QueryConfig
}

func NewQueryService(store vectorstore.Store, embedder ai.IEmbedder, generator ai.IGenerator, cfg config.QueryConfig) *QueryService {
	return &QueryService{store: store, embedder: embedder, generator: generator, cfg: cfg}
}

// Answer resolves a query to a non-empty answer string. It returns an error
// only when embedding or the vector store fails outright; other failure
// modes produce a phrased failure message.
func (s *QueryService) Answer(ctx context.Context, qc model.QueryContext) (string, error) {
	logger := logutil.GetLogger(ctx)
	if !s.cfg.Stateful {
		qc.History = nil
		qc.AllowedDocIDs = nil
	}
	topK := qc.TopK
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	// An explicitly empty document scope means the caller has access to
	// nothing, so there is no point querying the store.
	if qc.AllowedDocIDs != nil && len(qc.AllowedDocIDs) == 0 {
		logger.Info("query scoped to zero documents, skipping retrieval", zap.String("query", qc.Query))
		return s.retrievalFailureMessage(ctx, qc.Query), nil
	}

	embedding, err := s.embedder.Embed(ctx, qc.Query, ai.TaskRetrievalQuery)
	if err != nil {
		return "", fmt.Errorf("%w: %w: embed query: %v", apperrors.ErrQueryProcessing, apperrors.ErrEmbedding, err)
	}

	// Oversample so the relevance filter has enough candidates to cut from.
	k := topK
	if k < s.cfg.OversampleFloor {
		k = s.cfg.OversampleFloor
	}
	candidates, err := s.store.Query(ctx, embedding, k, qc.AllowedDocIDs)
	if err != nil {
		return "", fmt.Errorf("%w: %w: query store: %v", apperrors.ErrQueryProcessing, apperrors.ErrStore, err)
	}

	relevant := FilterByRelevance(candidates, s.cfg.DistanceThreshold)
	if len(relevant) == 0 {
		logger.Info("no candidates passed the relevance threshold",
			zap.String("query", qc.Query),
			zap.Int("retrieved", len(candidates)),
			zap.Float64("threshold", s.cfg.DistanceThreshold))
		return s.retrievalFailureMessage(ctx, qc.Query), nil
	}
	if len(relevant) > topK {
		relevant = relevant[:topK]
	}

	answer, err := s.generator.Generate(ctx, s.buildAnswerPrompt(qc, relevant))
	if err != nil {
		logger.Error("answer generation failed", zap.String("query", qc.Query), zap.Error(err))
		return synthesisFallbackMessage, nil
	}
	answer = strings.TrimSpace(answer)
	if answer == s.cfg.Sentinel {
		logger.Info("model declined to answer from retrieved context", zap.String("query", qc.Query))
		return s.synthesisFailureMessage(ctx, qc.Query), nil
	}
	if answer == "" {
		return synthesisFallbackMessage, nil
	}
	return answer, nil
}

func (s *QueryService) buildAnswerPrompt(qc model.QueryContext, relevant []model.RetrievedCandidate) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Answer the user's question using only the context below.\n")
	sb.WriteString("If the context does not contain the information needed to answer, reply with exactly: ")
	sb.WriteString(s.cfg.Sentinel)
	sb.WriteString("\n\nContext:\n")
	for _, c := range relevant {
		sb.WriteString("---\n")
		sb.WriteString(c.Text)
		sb.WriteString("\n")
	}
	if history := s.formatHistory(qc.History); history != "" {
		sb.WriteString("\nConversation so far:\n")
		sb.WriteString(history)
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(qc.Query)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func (s *QueryService) formatHistory(history []model.Message) string {
	if len(history) == 0 {
		return ""
	}
	if s.cfg.MaxHistory > 0 && len(history) > s.cfg.MaxHistory {
		history = history[len(history)-s.cfg.MaxHistory:]
	}
	var sb strings.Builder
	for _, msg := range history {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// retrievalFailureMessage phrases a "nothing relevant found" reply with the
// model, falling back to a canned line when the model is unavailable too.
func (s *QueryService) retrievalFailureMessage(ctx context.Context, query string) string {
	prompt := fmt.Sprintf("The user asked: %q\n"+
		"No relevant documents were found for this question. "+
		"Write one short, polite sentence telling the user you could not find relevant information for their question. "+
		"Do not invent an answer.", query)
	return s.failureMessage(ctx, prompt, retrievalFallbackMessage)
}

// synthesisFailureMessage phrases a "found documents but no answer" reply.
func (s *QueryService) synthesisFailureMessage(ctx context.Context, query string) string {
	prompt := fmt.Sprintf("The user asked: %q\n"+
		"Relevant documents were found, but they do not contain an answer to this question. "+
		"Write one short, polite sentence telling the user the available documents do not answer their question. "+
		"Do not invent an answer.", query)
	return s.failureMessage(ctx, prompt, synthesisFallbackMessage)
}

func (s *QueryService) failureMessage(ctx context.Context, prompt string, fallback string) string {
	logger := logutil.GetLogger(ctx)
	msg, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("failed to phrase failure message", zap.Error(err))
		return fallback
	}
	msg = strings.TrimSpace(msg)
	if msg == "" || msg == s.cfg.Sentinel {
		return fallback
	}
	return msg
}
