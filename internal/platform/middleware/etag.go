package middleware

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ETagConfig controls the conditional-GET middleware.
type ETagConfig struct {
	// MaxAge is the Cache-Control max-age in seconds.
	MaxAge int
	// Vary lists request headers the response depends on.
	Vary []string
}

// DefaultETagConfig suits definition responses, which only change on reload.
func DefaultETagConfig() ETagConfig {
	return ETagConfig{MaxAge: 300, Vary: []string{"Accept"}}
}

// bufferedResponseWriter holds the body so the ETag can be computed before
// anything reaches the client.
type bufferedResponseWriter struct {
	writer     http.ResponseWriter
	buf        *bytes.Buffer
	statusCode int
}

func newBufferedResponseWriter(w http.ResponseWriter) *bufferedResponseWriter {
	return &bufferedResponseWriter{writer: w, buf: &bytes.Buffer{}, statusCode: http.StatusOK}
}

func (w *bufferedResponseWriter) Header() http.Header { return w.writer.Header() }

func (w *bufferedResponseWriter) Write(b []byte) (int, error) { return w.buf.Write(b) }

func (w *bufferedResponseWriter) WriteHeader(code int) { w.statusCode = code }

func (w *bufferedResponseWriter) flushTo() error {
	w.writer.WriteHeader(w.statusCode)
	if w.buf.Len() > 0 {
		_, err := w.writer.Write(w.buf.Bytes())
		return err
	}
	return nil
}

// ETag sets a weak ETag and Cache-Control on successful GET responses and
// answers a matching If-None-Match with 304.
func ETag(cfg ETagConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}

			res := c.Response()
			orig := res.Writer
			buf := newBufferedResponseWriter(orig)
			res.Writer = buf

			err := next(c)
			res.Writer = orig
			if err != nil {
				return err
			}
			if buf.statusCode >= 400 {
				return buf.flushTo()
			}

			res.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", cfg.MaxAge))
			if len(cfg.Vary) > 0 {
				res.Header().Set("Vary", strings.Join(cfg.Vary, ", "))
			}
			etag := computeETag(buf.buf.Bytes())
			res.Header().Set("ETag", etag)

			if inm := req.Header.Get("If-None-Match"); inm != "" && etagMatch(inm, etag) {
				orig.WriteHeader(http.StatusNotModified)
				return nil
			}
			return buf.flushTo()
		}
	}
}

func computeETag(body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf(`W/"%x"`, sum[:16])
}

// etagMatch compares an If-None-Match value against etag using weak
// comparison. Lists and "*" are supported.
func etagMatch(headerVal, etag string) bool {
	headerVal = strings.TrimSpace(headerVal)
	if headerVal == "*" {
		return true
	}
	for _, candidate := range strings.Split(headerVal, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
