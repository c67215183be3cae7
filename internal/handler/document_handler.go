package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/docsift/docsift/internal/model"
	"github.com/docsift/docsift/internal/pkg/errcode"
	"github.com/docsift/docsift/internal/pkg/response"
	"github.com/docsift/docsift/internal/service"
)

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

type ingestDocument struct {
	DocID    string                 `json:"doc_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ingestRequest struct {
	Documents []ingestDocument `json:"documents"`
}

func (h *DocumentHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if len(req.Documents) == 0 {
		response.Error(c, errcode.ErrInvalid, "documents required")
		return
	}
	docs := make([]model.RawDocument, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, model.RawDocument{
			DocID:    d.DocID,
			Text:     d.Text,
			Metadata: d.Metadata,
		})
	}
	count, err := h.ingest.Ingest(c.Request.Context(), docs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks_ingested": count})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	docID := c.Param("id")
	if docID == "" {
		response.Error(c, errcode.ErrInvalid, "doc id required")
		return
	}
	if err := h.ingest.DeleteDocument(c.Request.Context(), docID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"doc_id": docID})
}

func (h *DocumentHandler) Stats(c *gin.Context) {
	count, err := h.ingest.Count(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunk_count": count})
}
