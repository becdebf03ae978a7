package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the request ID between the scheduling UI, this API and
	// the access log.
	Header = "X-Request-ID"

	contextKey = "request_id"

	// maxInboundLength caps caller-supplied IDs so a hostile header cannot
	// bloat log lines.
	maxInboundLength = 64
)

// Middleware propagates the caller's request ID or mints a fresh UUID, and
// reflects it on the response so a booking failure can be traced end to end.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" || len(id) > maxInboundLength {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request ID bound to this request, or "" outside the
// middleware.
func Value(c *gin.Context) string {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
