package service

import (
	"github.com/docsift/docsift/internal/model"
)

// FilterByRelevance keeps only candidates whose distance falls strictly
// below threshold. Candidates without a distance are dropped since their
// relevance cannot be judged. Order is preserved.
func FilterByRelevance(candidates []model.RetrievedCandidate, threshold float64) []model.RetrievedCandidate {
	out := make([]model.RetrievedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasDistance {
			continue
		}
		if c.Distance < threshold {
			out = append(out, c)
		}
	}
	return out
}
