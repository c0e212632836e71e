package api

import (
	"net/http"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/gin-gonic/gin"
)

// RetryAfterManualReview is returned with 429 when a folder tree is too
// deep to delete automatically.
const RetryAfterManualReview = "manual review"

type errorResponse struct {
	Status     string `json:"status"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	RetryAfter string `json:"retry_after,omitempty"`
}

func statusOf(kind common.Kind) int {
	switch kind {
	case common.KindNotFound, common.KindInvalidToken:
		return http.StatusNotFound
	case common.KindInvalidArgument:
		return http.StatusBadRequest
	case common.KindUnauthorized:
		return http.StatusForbidden
	case common.KindConflict:
		return http.StatusConflict
	case common.KindRecursionLimitExceeded:
		return http.StatusTooManyRequests
	case common.KindTokenExpired:
		return http.StatusGone
	case common.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := statusOf(kind)

	resp := errorResponse{Status: "error", Kind: string(kind), Message: common.Message(err)}
	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error(c.Request.Context(), "request failed", "route", c.FullPath(), "kind", kind, "error", err)
		if kind == common.KindInternal {
			resp.Message = "internal error"
		}
	case kind == common.KindRecursionLimitExceeded:
		resp.RetryAfter = RetryAfterManualReview
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Status:  "error",
		Kind:    string(common.KindInvalidArgument),
		Message: err.Error(),
	})
}
