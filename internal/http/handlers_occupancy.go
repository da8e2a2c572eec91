package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
)

// handleSetOccupancy records the status of one apartment.
func (s *Server) handleSetOccupancy(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/", notice{Type: NotificationError, Message: "Formato de requisição inválido."})
		return
	}
	back := returnFilter(r.PostForm)
	unit := sanitizeInput(r.PostForm.Get(fieldUnit))

	occupied, err := parseOccupied(r.PostForm.Get(fieldOccupied))
	if err == nil {
		_, err = s.svc.SetOccupancy(r.Context(), unit, occupied)
	}
	if err != nil {
		s.logFailure(r, "Occupancy update failed", err, applog.OpUpdate)
		redirectWithNotice(w, r, dashboardURL(back), *errorNotice(err))
		return
	}
	redirectWithNotice(w, r, dashboardURL(back), notice{
		Type:    NotificationSuccess,
		Message: fmt.Sprintf("%s marcado como %s.", unit, core.StatusLabel(occupied)),
	})
}

// handleDownload renders one artifact for the filter in the query string.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	f, err := ledger.FilterFromQuery(r.URL.Query())
	if err != nil {
		http.Error(w, messageFor(err), statusFor(err))
		return
	}

	a, err := s.svc.Report(ctx, f, name)
	if err != nil {
		s.logFailure(r, "Download failed", err, applog.OpRender)
		http.Error(w, messageFor(err), statusFor(err))
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Report downloaded",
		applog.FieldArtifact, a.Name,
		applog.FieldBytes, len(a.Data))
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
