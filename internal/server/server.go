// Package server is the HTTP API behind the dashboard client: auth,
// transactions, filter presets, and the admin audit trail. Handlers
// speak the JSON envelopes the client core decodes and return every
// error as {"error": message}.
package server

import (
	"net/http"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"txdash/internal/audit"
	auditrepo "txdash/internal/audit/repository"
	"txdash/internal/policy/engine"
	presetrepo "txdash/internal/preset/repository"
	"txdash/internal/security"
	txrepo "txdash/internal/transaction/repository"
	userrepo "txdash/internal/user/repository"
)

// Deps are the collaborators a Server needs. TracerProvider and
// MeterProvider may be nil; telemetry is then a no-op.
type Deps struct {
	Users        userrepo.Repository
	Transactions txrepo.Repository
	Presets      presetrepo.Repository
	AuditRepo    auditrepo.Repository
	AuditLog     *audit.Logger
	Hasher       *security.Hasher
	Tokens       *security.TokenProvider
	Policy       engine.Evaluator

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Server holds the handler dependencies and builds the route table.
type Server struct {
	users        userrepo.Repository
	transactions txrepo.Repository
	presets      presetrepo.Repository
	auditRepo    auditrepo.Repository
	auditLog     *audit.Logger
	hasher       *security.Hasher
	tokens       *security.TokenProvider
	policy       engine.Evaluator

	tracer   trace.Tracer
	duration metric.Float64Histogram
}

// New returns a Server wired to its dependencies.
func New(deps Deps) (*Server, error) {
	tp := deps.TracerProvider
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	mp := deps.MeterProvider
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	duration, err := mp.Meter("txdash.server").Float64Histogram("http.server.request.duration")
	if err != nil {
		return nil, err
	}
	return &Server{
		users:        deps.Users,
		transactions: deps.Transactions,
		presets:      deps.Presets,
		auditRepo:    deps.AuditRepo,
		auditLog:     deps.AuditLog,
		hasher:       deps.Hasher,
		tokens:       deps.Tokens,
		policy:       deps.Policy,
		tracer:       tp.Tracer("txdash.server"),
		duration:     duration,
	}, nil
}

// Handler returns the full route table wrapped in telemetry.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("GET /api/transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.requireAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/presets", s.requireAuth(s.handleListPresets))
	mux.HandleFunc("POST /api/presets", s.requireAuth(s.handleCreatePreset))
	mux.HandleFunc("PUT /api/presets/{id}", s.requireAuth(s.handleUpdatePreset))
	mux.HandleFunc("DELETE /api/presets/{id}", s.requireAuth(s.handleDeletePreset))

	mux.HandleFunc("GET /api/audit", s.requireAuth(s.handleListAudit))

	return telemetry(s.tracer, s.duration, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allow runs the policy check and writes the 403 itself when denied.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, action string) bool {
	allowed, err := s.policy.Allow(r.Context(), userFrom(r.Context()), action)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "policy evaluation failed")
		return false
	}
	if !allowed {
		respondError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
