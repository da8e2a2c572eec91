package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
	"alugueis/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reads both tables; a backend that cannot serve them is not ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		checks["ledger"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["ledger"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// handleIndex renders the dashboard for the filter in the query string.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	n := popNotice(w, r)
	f, err := ledger.FilterFromQuery(r.URL.Query())
	if err != nil {
		s.renderDashboard(w, r, http.StatusBadRequest, ledger.Filter{}, entryForm{}, errorNotice(err))
		return
	}
	s.renderDashboard(w, r, http.StatusOK, f, entryForm{}, n)
}

// renderDashboard writes the dashboard for f with the given status. A failing read still
// renders the page frame with the error notice and status 500.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, code int, f ledger.Filter, form entryForm, n *notice) {
	ctx := r.Context()
	d, err := s.svc.Dashboard(ctx, f)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Dashboard read failed", err, applog.OpRead, nil)
		d = services.Dashboard{Filter: f, Today: s.svc.Today()}
		code = http.StatusInternalServerError
		n = errorNotice(err)
	}
	s.render(w, r, code, "index.html", newDashboardPage(d, form, s.formState(r, form), n))
}

// formState prefers the kind the user just submitted over the remembered one.
func (s *Server) formState(r *http.Request, form entryForm) core.FormState {
	st := readFormState(r)
	if form.Kind.Valid() {
		st = st.WithKind(form.Kind).WithCategory(form.Category)
	}
	return st
}

// render executes a template into a buffer so a template failure never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldComponent, applog.ComponentTemplate,
			applog.FieldError, err,
			"template", name)
		http.Error(w, "Erro ao gerar a página.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}
