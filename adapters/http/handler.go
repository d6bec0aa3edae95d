// Package http provides the HTTP transport for sync operations: the
// authority's handlers and router, and a client for replicas.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"

	"github.com/artpar/confsync/adapters/metrics"
	"github.com/artpar/confsync/app"
	"github.com/artpar/confsync/core/schema"
	"github.com/artpar/confsync/core/wire"
	_ "github.com/artpar/confsync/docs/swagger" // swagger docs
	"github.com/artpar/confsync/domain/auth"
	"github.com/artpar/confsync/ports"
)

// ProtocolVersion is sent by clients in ProtocolHeader. Peers must agree
// on the major version.
const ProtocolVersion = "1.0.0"

// Header and media type names.
const (
	ProtocolHeader = "X-Confsync-Protocol"
	AppliedHeader  = "X-Confsync-Applied"
	RejectedHeader = "X-Confsync-Rejected"
	ContentType    = "application/x-confsync"
)

// maxMessageBytes bounds a single sync message.
const maxMessageBytes = 1 << 20

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version  string `json:"version"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
}

// SyncHandler serves an authority session over HTTP.
type SyncHandler struct {
	session *app.Session
	queue   *app.Queue
	authn   ports.Authenticator
	logger  zerolog.Logger
	metrics *metrics.Collector
	version string
}

// SyncHandlerConfig contains dependencies for SyncHandler. Authn may be
// nil, in which case every request is anonymous.
type SyncHandlerConfig struct {
	Session *app.Session
	Queue   *app.Queue
	Authn   ports.Authenticator
	Metrics *metrics.Collector
	Version string
}

// NewSyncHandler creates a handler for an authority session.
func NewSyncHandler(cfg SyncHandlerConfig, logger zerolog.Logger) (*SyncHandler, error) {
	if cfg.Session == nil || cfg.Session.Role() != app.RoleAuthority {
		return nil, errors.New("sync handler requires an authority session")
	}
	if cfg.Queue == nil {
		return nil, errors.New("sync handler requires a queue")
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &SyncHandler{
		session: cfg.Session,
		queue:   cfg.Queue,
		authn:   cfg.Authn,
		logger:  logger,
		metrics: cfg.Metrics,
		version: version,
	}, nil
}

// Sync handles POST /v1/sync. The body is one encoded operation.
//
//   - 200 with an encoded reply when the operation has one
//   - 204 when applied; the Applied and Rejected headers carry field counts
//   - 400 when the message cannot be decoded
//   - 403 with a text notice when the actor lacks privilege
//   - 409 when the operation is not handled by the authority
//
//	@Summary		Submit a sync operation
//	@Description	Handles one encoded operation: a client update or a resync request
//	@Tags			Sync
//	@Accept			application/x-confsync
//	@Produce		application/x-confsync
//	@Security		BearerAuth
//	@Param			X-Confsync-Protocol	header	string	true	"Protocol version, e.g. 1.0.0"
//	@Param			message				body	string	true	"Encoded operation"	format(binary)
//	@Success		200					{string}	binary	"Encoded reply operation"
//	@Success		204					"Applied; see X-Confsync-Applied and X-Confsync-Rejected"
//	@Failure		400					{string}	string	"Undecodable message"
//	@Failure		403					{string}	string	"Permission denied notice"
//	@Failure		409					{string}	string	"Operation not handled by the authority"
//	@Router			/v1/sync [post]
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(data) > maxMessageBytes {
		http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
		return
	}

	op, err := wire.Decode(data)
	if err != nil {
		// The session logs and counts the failure.
		_, err = h.session.HandleMessage(ctx, actor, data)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.queue.Do(ctx, func(ctx context.Context) app.Result {
		return h.session.Handle(ctx, actor, op)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("actor", actor).Msg("sync queue unavailable")
		http.Error(w, "sync queue unavailable", http.StatusServiceUnavailable)
		return
	}

	switch {
	case res.Denied != nil:
		http.Error(w, res.Denied.Notice(), http.StatusForbidden)
		return
	case res.Misrouted != nil:
		http.Error(w, res.Misrouted.Error(), http.StatusConflict)
		return
	}

	w.Header().Set(AppliedHeader, strconv.Itoa(len(res.Applied)))
	w.Header().Set(RejectedHeader, strconv.Itoa(len(res.Rejected)))

	if res.Reply == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeOperation(w, *res.Reply)
}

// FullSync handles GET /v1/sync/full by returning the encoded snapshot of
// syncable values.
//
//	@Summary		Fetch a full snapshot
//	@Description	Returns an encoded FullSync operation holding every syncable value
//	@Tags			Sync
//	@Produce		application/x-confsync
//	@Security		BearerAuth
//	@Param			X-Confsync-Protocol	header		string	true	"Protocol version, e.g. 1.0.0"
//	@Success		200					{string}	binary	"Encoded FullSync operation"
//	@Router			/v1/sync/full [get]
func (h *SyncHandler) FullSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.queue.Do(r.Context(), func(ctx context.Context) app.Result {
		op := h.session.FullSync()
		return app.Result{Op: wire.OpFullSync, Reply: &op}
	})
	if err != nil {
		http.Error(w, "sync queue unavailable", http.StatusServiceUnavailable)
		return
	}
	h.writeOperation(w, *res.Reply)
}

// Schema handles GET /v1/schema. Non-syncable fields are listed only
// with ?all=true.
//
//	@Summary		Describe the schema
//	@Description	Lists modules and fields with their types, defaults and ranges
//	@Tags			Schema
//	@Produce		json
//	@Security		BearerAuth
//	@Param			all	query		bool	false	"Include non-syncable fields"
//	@Success		200	{object}	schema.SchemaResponse
//	@Failure		401	{string}	string	"Missing or unknown token"
//	@Router			/v1/schema [get]
func (h *SyncHandler) Schema(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	writeJSON(w, http.StatusOK, schema.Introspect(h.session.Store().Schema(), all))
}

// Health handles GET /healthz.
//
//	@Summary		Liveness check
//	@Description	Returns OK with the field count and the number of queued operations
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	map[string]any	"status, fields, pending"
//	@Router			/healthz [get]
func (h *SyncHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"fields":  h.session.Store().Schema().Len(),
		"pending": h.queue.Len(),
	})
}

// Version handles GET /version.
//
//	@Summary		Version information
//	@Description	Returns the build version and the sync protocol version
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	VersionResponse
//	@Router			/version [get]
func (h *SyncHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Version:  h.version,
		Protocol: ProtocolVersion,
		Service:  "confsync",
	})
}

func (h *SyncHandler) writeOperation(w http.ResponseWriter, op wire.Operation) {
	data, err := wire.Encode(op)
	if err != nil {
		h.logger.Error().Err(err).Str("op", op.Kind.String()).Msg("failed to encode reply")
		http.Error(w, "failed to encode reply", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// OpenAPI serves the registered API description.
func OpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, "api description unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	io.WriteString(w, doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler  // Optional metrics exporter handler (for /metrics endpoint)
	MetricsPath    string        // default: /metrics
	Timeout        time.Duration // Per-request timeout (default: 30s)
	EnableOpenAPI  bool          // Serve the API description and Swagger UI
}

// NewRouter creates the authority's HTTP router.
func NewRouter(h *SyncHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, metricsPath))
	}

	r.Get("/healthz", h.Health)
	r.Get("/version", h.Version)

	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(metricsPath, promhttp.Handler())
	}

	if cfg.EnableOpenAPI {
		r.Get("/.well-known/openapi.json", OpenAPI)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/.well-known/openapi.json"),
		))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(NewAuthMiddleware(h.authn, h.metrics, logger))
		r.Get("/schema", h.Schema)

		r.Group(func(r chi.Router) {
			r.Use(RequireProtocol)
			r.Post("/sync", h.Sync)
			r.Get("/sync/full", h.FullSync)
		})
	})

	return r
}

type actorKey struct{}

// ActorFromContext returns the authenticated actor, or "" when anonymous.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// NewAuthMiddleware resolves the bearer token to an actor. Requests
// without a token proceed anonymously; a token that does not match any
// actor is refused with 401.
func NewAuthMiddleware(authn ports.Authenticator, m *metrics.Collector, logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || authn == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := auth.ParseBearer(header)
			if !ok {
				authFailure(w, m, "malformed_header")
				return
			}
			actor, ok := authn.Authenticate(token)
			if !ok {
				logger.Warn().Str("remote", r.RemoteAddr).Msg("rejected unknown bearer token")
				authFailure(w, m, "invalid_token")
				return
			}

			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authFailure(w http.ResponseWriter, m *metrics.Collector, reason string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="confsync"`)
	http.Error(w, "invalid credentials", http.StatusUnauthorized)
}

// RequireProtocol refuses requests whose protocol major version differs
// from ProtocolVersion.
func RequireProtocol(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(ProtocolHeader)
		if !compatible(got, ProtocolVersion) {
			http.Error(w, "unsupported protocol version "+strconv.Quote(got)+", want "+ProtocolVersion, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func compatible(got, want string) bool {
	gotMajor, _, _ := strings.Cut(got, ".")
	wantMajor, _, _ := strings.Cut(want, ".")
	return gotMajor != "" && gotMajor == wantMajor
}

// NewMetricsMiddleware creates middleware that records request metrics.
// Requests for /healthz and skipPath are not counted.
func NewMetricsMiddleware(m *metrics.Collector, skipPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if r.URL.Path == "/healthz" || r.URL.Path == skipPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.RequestsTotal.WithLabelValues(r.Method, route, statusLabel(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// NewLoggingMiddleware creates middleware that logs HTTP requests other
// than health checks and skipPath.
func NewLoggingMiddleware(logger zerolog.Logger, skipPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if r.URL.Path == "/healthz" || r.URL.Path == skipPath {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
