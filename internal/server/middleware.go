package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

var httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "HTTP requests by route, method and status.",
}, []string{"route", "method", "status"})

// RequestLogger tags each request with an id and logs it once it completes.
// Static assets and metrics scrapes are not logged.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()

		path := c.Request.URL.Path
		if path == "/metrics" || strings.HasPrefix(path, "/assets/") {
			return
		}
		ev := log.Info()
		if status >= 500 {
			ev = log.Error()
		}
		ev.Str("request_id", id).Str("method", c.Request.Method).Str("path", path).Int("status", status).Dur("dur", time.Since(start)).Msg("http")
	}
}

// CORS allows the listed origins; "*" or an empty list allows any. Every
// request header is allowed. Credentialed responses cannot use a "*"
// wildcard, so with explicit origins the preflight echoes the requested
// headers.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader}
	handle := cors.New(cfg)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
				c.Writer = &echoHeadersWriter{ResponseWriter: c.Writer, requested: requested}
			}
		}
		handle(c)
	}
}

// echoHeadersWriter rewrites Access-Control-Allow-Headers on an accepted
// preflight just before the status line goes out.
type echoHeadersWriter struct {
	gin.ResponseWriter
	requested string
}

func (w *echoHeadersWriter) WriteHeader(code int) {
	w.echo()
	w.ResponseWriter.WriteHeader(code)
}

func (w *echoHeadersWriter) WriteHeaderNow() {
	w.echo()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *echoHeadersWriter) echo() {
	h := w.Header()
	if h.Get("Access-Control-Allow-Origin") != "" {
		h.Set("Access-Control-Allow-Headers", w.requested)
	}
}
