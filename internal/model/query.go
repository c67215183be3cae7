package model

// Message is one turn of a conversation, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryContext carries everything the orchestrator needs for one question.
// AllowedDocIDs semantics: nil means "search everything", a non-nil empty
// slice means "this session is scoped to zero documents" and must not hit
// the store at all.
type QueryContext struct {
	Query         string    `json:"query"`
	TopK          int       `json:"top_k"`
	History       []Message `json:"history,omitempty"`
	AllowedDocIDs []string  `json:"allowed_doc_ids,omitempty"`
}

// RetrievedCandidate is one raw similarity-search hit. Distance is a
// lower-is-better score in whatever units the backing store produces;
// HasDistance is false when the store did not report one.
type RetrievedCandidate struct {
	ChunkID     string                 `json:"chunk_id"`
	Text        string                 `json:"text"`
	Metadata    map[string]interface{} `json:"metadata"`
	Distance    float64                `json:"distance"`
	HasDistance bool                   `json:"-"`
}
