package devserver

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// storedResponse is a completed mutation response, replayed verbatim when the
// same Idempotency-Key arrives again.
type storedResponse struct {
	status      int
	contentType string
	body        []byte
}

type idempotencyCache struct {
	seen *expirable.LRU[string, storedResponse]
}

func newIdempotencyCache() *idempotencyCache {
	return &idempotencyCache{
		seen: expirable.NewLRU[string, storedResponse](2048, nil, 10*time.Minute),
	}
}

// bodyRecorder tees the response so it can be cached after the handler runs.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (srv *Server) idempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		// Scope the key by method and path so one key cannot collide across
		// different operations.
		scoped := c.Request.Method + " " + c.Request.URL.Path + " " + key

		if stored, ok := srv.idempotency.seen.Get(scoped); ok {
			c.Data(stored.status, stored.contentType, stored.body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError {
			srv.idempotency.seen.Add(scoped, storedResponse{
				status:      status,
				contentType: c.Writer.Header().Get("Content-Type"),
				body:        recorder.buf.Bytes(),
			})
		}
	}
}
