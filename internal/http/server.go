package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finewatch/internal/cache"
	"finewatch/internal/core"
)

// FinesAPI is the read surface the handlers expose. Implemented by
// services.FinesService; tests substitute a stub.
type FinesAPI interface {
	Overview(ctx context.Context, year int) (core.Overview, error)
	FinesByYear(ctx context.Context) ([]core.YearSummary, error)
	FinesByCategory(ctx context.Context) ([]core.CategorySummary, error)
	FinesBySector(ctx context.Context) ([]core.SectorSummary, error)
	TopFirms(ctx context.Context, limit int) ([]core.FirmSummary, error)
	FirmDetails(ctx context.Context, slug string, recordLimit int) (*core.FirmDetails, error)
	BreachDetails(ctx context.Context, slug string, limitPenalties, limitFirms int) (*core.BreachDetails, error)
	SectorDetails(ctx context.Context, slug string, limitPenalties, limitBreaches int) (*core.SectorDetails, error)
	Trend(ctx context.Context, period string, year, limit int) ([]core.TrendPoint, error)
}

type Server struct {
	http.Server
	api         FinesAPI
	rateLimiter *rateLimiter

	// Cached marshaled responses for the listing endpoints, keyed by
	// request URI. The data changes at most daily, so a short TTL keeps
	// the dashboard snappy without an invalidation protocol.
	listingCache *cache.LRUCache[[]byte]
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, api FinesAPI) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		api:          api,
		rateLimiter:  newRateLimiter(),
		listingCache: cache.NewLRUCache[[]byte](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.listingCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/fines/stats", s.withMiddleware(s.cached(s.handleStats)))
	mux.HandleFunc("GET /api/fines/by-year", s.withMiddleware(s.cached(s.handleByYear)))
	mux.HandleFunc("GET /api/fines/by-category", s.withMiddleware(s.cached(s.handleByCategory)))
	mux.HandleFunc("GET /api/fines/by-sector", s.withMiddleware(s.cached(s.handleBySector)))
	mux.HandleFunc("GET /api/fines/top-firms", s.withMiddleware(s.cached(s.handleTopFirms)))
	mux.HandleFunc("GET /api/fines/trends", s.withMiddleware(s.cached(s.handleTrends)))
	mux.HandleFunc("GET /api/firms/{slug}", s.withMiddleware(s.handleFirmDetails))
	mux.HandleFunc("GET /api/breaches/{slug}", s.withMiddleware(s.handleBreachDetails))
	mux.HandleFunc("GET /api/sectors/{slug}", s.withMiddleware(s.handleSectorDetails))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request IDs, rate limiting, security headers, and
// request logging to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// cached serves listing responses from the LRU cache, capturing fresh 200
// responses for later hits. Detail endpoints stay uncached: their key space
// is one entry per firm.
func (s *Server) cached(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.RequestURI()
		if body, ok := s.listingCache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
			return
		}

		rec := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rec, r)

		if rec.statusCode == http.StatusOK && len(rec.body) > 0 {
			s.listingCache.Set(key, rec.body)
		}
	}
}

// InvalidateCaches drops cached listing responses. Called after ingest.
func (s *Server) InvalidateCaches() {
	s.listingCache.Clear()
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// captureWriter additionally retains the body for cache insertion.
type captureWriter struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.statusCode = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.statusCode == http.StatusOK {
		cw.body = append(cw.body, b...)
	}
	return cw.ResponseWriter.Write(b)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
