package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

// BuildInfo carries the build metadata reported by the health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// ReadyCheck probes one dependency; a non-nil error marks it degraded.
type ReadyCheck func(ctx context.Context) error

// HealthHandlers serves the /healthz and /readyz endpoints.
type HealthHandlers struct {
	build  BuildInfo
	clock  func() time.Time
	checks map[string]ReadyCheck
}

// HealthOption customises the health handlers before construction.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs the health endpoints.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		build:  BuildInfo{StartedAt: time.Now().UTC()},
		clock:  time.Now,
		checks: make(map[string]ReadyCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithHealthBuildInfo sets the build metadata included in health payloads.
func WithHealthBuildInfo(info BuildInfo) HealthOption {
	return func(h *HealthHandlers) {
		h.build = info
	}
}

// WithHealthClock overrides the time source, used by tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// WithHealthReadyCheck registers a named readiness probe.
func WithHealthReadyCheck(name string, check ReadyCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name != "" && check != nil {
			h.checks[name] = check
		}
	}
}

// Healthz reports liveness; it never depends on downstream systems.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    healthStatusOK,
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if !h.build.StartedAt.IsZero() {
		payload["uptime"] = now.Sub(h.build.StartedAt).String()
	}
	if h.build.Version != "" {
		payload["version"] = h.build.Version
	}
	if h.build.CommitSHA != "" {
		payload["commitSha"] = h.build.CommitSHA
	}
	if h.build.Environment != "" {
		payload["environment"] = h.build.Environment
	}
	writeJSON(w, http.StatusOK, payload)
}

// Readyz runs the registered readiness probes and reports 503 when any fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.clock()

	status := healthStatusOK
	checks := make(map[string]map[string]any, len(h.checks))
	details := make([]string, 0)

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		started := h.clock()
		err := h.checks[name](ctx)
		latency := h.clock().Sub(started)

		check := map[string]any{
			"status":    healthStatusOK,
			"latency":   latency.String(),
			"checkedAt": now.UTC().Format(time.RFC3339),
		}
		if err != nil {
			status = healthStatusDegraded
			check["status"] = healthStatusDegraded
			check["error"] = err.Error()
			details = append(details, name+": "+err.Error())
		}
		checks[name] = check
	}

	payload := map[string]any{
		"status":  status,
		"checks":  checks,
		"details": details,
	}

	code := http.StatusOK
	if status != healthStatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
