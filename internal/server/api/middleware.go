package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/auth"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

func bearerToken(c *gin.Context) string {
	h := c.GetHeader(common.AuthorizationHeaderName)
	if !strings.HasPrefix(h, common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

// requireUser validates the bearer token and stores its user id in the
// gin context.
func requireUser(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Status: "error", Kind: string(common.KindInvalidToken), Message: "authorization token required",
			})
			return
		}

		userID, err := auth.GetUserIDFromToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Status: "error", Kind: string(common.KindOf(err)), Message: "invalid or expired token",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func observe(m *metrics.Metrics, l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), time.Since(start))
		l.Debug(c.Request.Context(), "request",
			"method", c.Request.Method, "route", route, "status", status, "duration", time.Since(start))
	}
}
