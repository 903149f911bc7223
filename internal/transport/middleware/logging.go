package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yusufwdn/reimverse/pkg/logger"
)

// maxLoggedBody caps how much of a JSON body ends up in the log line.
const maxLoggedBody = 4 << 10

const filtered = "[FILTERED]"

// sensitiveKeys are matched as substrings of lower-cased header names and JSON keys.
var sensitiveKeys = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"cookie",
	"api_key",
}

// Logging writes one line for the request and one for the response. Only JSON
// bodies are logged, with credentials masked. Receipts and other multipart
// uploads are summarised by their size.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lg := logger.From(r.Context())

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"headers", maskHeaders(r.Header),
		}
		if isJSON(r.Header.Get("Content-Type")) && r.Body != nil {
			raw, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
			r.Body = struct {
				io.Reader
				io.Closer
			}{io.MultiReader(bytes.NewReader(raw), r.Body), r.Body}
			attrs = append(attrs, "body", maskBody(raw))
		} else if r.ContentLength > 0 {
			attrs = append(attrs, "content_length", r.ContentLength)
		}
		lg.Info("incoming request", attrs...)

		rw := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		status := rw.status
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		resp := []any{
			"status_code", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"response_size", rw.size,
		}
		if status >= http.StatusBadRequest && isJSON(w.Header().Get("Content-Type")) {
			resp = append(resp, "body", maskBody(rw.head.Bytes()))
		}
		lg.Log(r.Context(), level, "response", resp...)
	})
}

// responseRecorder keeps the status, the size and the first bytes of the body.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
	head   bytes.Buffer
}

func (rw *responseRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	if room := maxLoggedBody - rw.head.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.head.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *responseRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}

func isSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, key := range sensitiveKeys {
		if strings.Contains(name, key) {
			return true
		}
	}
	return false
}

func maskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// maskBody returns the body as a string with sensitive JSON values replaced.
// Truncated or malformed JSON is not logged at all.
func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBody {
		return "[TRUNCATED]"
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "[UNPARSEABLE]"
	}
	out, err := json.Marshal(maskValue(data))
	if err != nil {
		return "[UNPARSEABLE]"
	}
	return string(out)
}

func maskValue(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = maskValue(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = maskValue(item)
		}
		return out
	default:
		return v
	}
}
