package errors

import "errors"

var (
	// ErrIngestion marks structurally invalid raw input, e.g. an upload
	// that promised documents but carried none.
	ErrIngestion = errors.New("ingestion failed")
	// ErrEmbedding marks embedding provider failures.
	ErrEmbedding = errors.New("embedding failed")
	// ErrStore marks vector store failures.
	ErrStore = errors.New("vector store failed")
	// ErrSynthesis marks generative model failures.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrQueryProcessing is the catch-all for orchestration failures not
	// attributable to a single collaborator.
	ErrQueryProcessing = errors.New("query processing failed")

	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

func IsIngestion(err error) bool {
	return errors.Is(err, ErrIngestion)
}

func IsEmbedding(err error) bool {
	return errors.Is(err, ErrEmbedding)
}

func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

func IsSynthesis(err error) bool {
	return errors.Is(err, ErrSynthesis)
}
