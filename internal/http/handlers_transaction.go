package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
	"alugueis/internal/services"
)

// handleCreateTransaction appends a transaction. A rejected entry re-renders the dashboard
// with the typed values; a stored one redirects back to the filtered dashboard.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderDashboard(w, r, http.StatusBadRequest, ledger.Filter{}, entryForm{}, &notice{Type: NotificationError, Message: "Formato de requisição inválido."})
		return
	}
	back := returnFilter(r.PostForm)
	form := readEntryForm(r.PostForm)

	tx, err := form.Transaction()
	if err == nil {
		tx, err = s.svc.AddTransaction(r.Context(), tx)
	}
	if err != nil {
		s.logFailure(r, "Transaction create failed", err, applog.OpCreate)
		s.renderDashboard(w, r, statusFor(err), back, form, errorNotice(err))
		return
	}

	writeFormState(w, s.formState(r, form))
	redirectWithNotice(w, r, dashboardURL(back), notice{
		Type:    NotificationSuccess,
		Message: "Transação registrada: " + tx.Unit + " " + string(tx.Category) + " " + tx.Amount.BRL(),
	})
}

// handleEditTransaction shows the edit form. Legacy rows are shown read-only.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back, err := ledger.FilterFromQuery(r.URL.Query())
	if err != nil {
		back = ledger.Filter{}
	}

	tx, err := s.svc.GetTransaction(r.Context(), id)
	if err != nil {
		s.logFailure(r, "Transaction lookup failed", err, applog.OpRead)
		redirectWithNotice(w, r, dashboardURL(back), *errorNotice(err))
		return
	}

	var n *notice
	if tx.Legacy() {
		n = &notice{Type: NotificationWarning, Message: messageFor(services.ErrLegacyRecord)}
	}
	s.renderEdit(w, r, http.StatusOK, entryFormFor(tx), back, n)
}

// handleUpdateTransaction replaces a transaction with the submitted values.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/", notice{Type: NotificationError, Message: "Formato de requisição inválido."})
		return
	}
	back := returnFilter(r.PostForm)
	form := readEntryForm(r.PostForm)
	form.ID = id
	form.Action = transactionPath(id)

	tx, err := form.Transaction()
	if err == nil {
		tx, err = s.svc.UpdateTransaction(r.Context(), id, tx)
	}
	if err != nil {
		s.logFailure(r, "Transaction update failed", err, applog.OpUpdate)
		if statusFor(err) == http.StatusNotFound {
			redirectWithNotice(w, r, dashboardURL(back), *errorNotice(err))
			return
		}
		s.renderEdit(w, r, statusFor(err), form, back, errorNotice(err))
		return
	}

	redirectWithNotice(w, r, dashboardURL(back), notice{
		Type:    NotificationSuccess,
		Message: "Transação atualizada: " + tx.Unit + " " + string(tx.Category) + " " + tx.Amount.BRL(),
	})
}

// handleDeleteTransaction removes a transaction, legacy or not.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/", notice{Type: NotificationError, Message: "Formato de requisição inválido."})
		return
	}
	back := returnFilter(r.PostForm)

	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		s.logFailure(r, "Transaction delete failed", err, applog.OpDelete)
		redirectWithNotice(w, r, dashboardURL(back), *errorNotice(err))
		return
	}
	redirectWithNotice(w, r, dashboardURL(back), notice{Type: NotificationSuccess, Message: "Transação excluída."})
}

// handleFormKind switches the kind of the entry form and re-renders it with the new
// category options, keeping everything else the user typed.
func (s *Server) handleFormKind(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(w, r, "/", notice{Type: NotificationError, Message: "Formato de requisição inválido."})
		return
	}
	back := returnFilter(r.PostForm)
	form := readEntryForm(r.PostForm)

	st := readFormState(r).WithKind(form.Kind).WithCategory(form.Category)
	form.Kind, form.Category = st.Kind, st.Category
	writeFormState(w, st)
	s.renderDashboard(w, r, http.StatusOK, back, form, nil)
}

func (s *Server) renderEdit(w http.ResponseWriter, r *http.Request, code int, form entryForm, back ledger.Filter, n *notice) {
	s.render(w, r, code, "edit.html", editPage{
		Notice: n,
		Entry:  newEntryView(form, readFormState(r), back.Query()),
		Back:   dashboardURL(back),
	})
}

// logFailure logs err at warn level for client mistakes and at error level otherwise.
func (s *Server) logFailure(r *http.Request, msg string, err error, op string) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	if statusFor(err) < http.StatusInternalServerError {
		logger.WarnContext(ctx, msg, applog.FieldError, err, applog.FieldOperation, op)
		return
	}
	applog.NewStructuredLogger(logger).LogError(ctx, msg, err, op, nil)
}
