package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/docsift/docsift/internal/pkg/errcode"
	apperrors "github.com/docsift/docsift/internal/pkg/errors"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}

// CodeOf maps a domain error onto its API code and user-facing message.
// Internal detail stays in the logs; callers only see the category.
func CodeOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalid):
		return errcode.ErrInvalid, "invalid request"
	case errors.Is(err, apperrors.ErrNotFound):
		return errcode.ErrNotFound, "not found"
	case apperrors.IsIngestion(err):
		return errcode.ErrIngestFailed, "ingestion failed"
	case apperrors.IsEmbedding(err):
		return errcode.ErrAIUnavailable, "embedding unavailable"
	case apperrors.IsSynthesis(err):
		return errcode.ErrAIUnavailable, "ai unavailable"
	case apperrors.IsStore(err):
		return errcode.ErrStoreUnavailable, "vector store unavailable"
	case errors.Is(err, apperrors.ErrQueryProcessing):
		return errcode.ErrQueryFailed, "query failed"
	default:
		return errcode.ErrInternal, "internal error"
	}
}

// Fail writes the error envelope for a domain error.
func Fail(c *gin.Context, err error) {
	code, msg := CodeOf(err)
	Error(c, code, msg)
}
