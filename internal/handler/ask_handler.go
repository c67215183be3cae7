package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docsift/docsift/internal/model"
	"github.com/docsift/docsift/internal/pkg/errcode"
	"github.com/docsift/docsift/internal/pkg/response"
	"github.com/docsift/docsift/internal/service"
)

type AskHandler struct {
	queries *service.QueryService
}

func NewAskHandler(queries *service.QueryService) *AskHandler {
	return &AskHandler{queries: queries}
}

type askRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
	// History and AllowedDocIDs only take effect when the server runs
	// in stateful mode. A missing allowed_doc_ids field means no scoping
	// while an explicit empty list means access to nothing.
	History       []model.Message `json:"history"`
	AllowedDocIDs []string        `json:"allowed_doc_ids"`
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	answer, err := h.queries.Answer(c.Request.Context(), model.QueryContext{
		Query:         req.Query,
		TopK:          req.TopK,
		History:       req.History,
		AllowedDocIDs: req.AllowedDocIDs,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"answer": answer})
}
