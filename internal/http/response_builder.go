// This file holds the notification plumbing (flash cookie) and the mapping from domain
// errors to status codes and user messages.

package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
	"alugueis/internal/report"
	"alugueis/internal/services"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// notice is one message shown above the dashboard.
type notice struct {
	Type    NotificationType
	Message string
}

const flashCookie = "alugueis_flash"

// redirectWithNotice stores n in a short-lived cookie and redirects with 303, so a reload
// of the resulting page does not resubmit the form.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, target string, n notice) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(string(n.Type) + "|" + n.Message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// popNotice returns the pending flash notice, if any, and clears it.
func popNotice(w http.ResponseWriter, r *http.Request) *notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	typ, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	switch NotificationType(typ) {
	case NotificationSuccess, NotificationError, NotificationWarning, NotificationInfo:
	default:
		return nil
	}
	return &notice{Type: NotificationType(typ), Message: msg}
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrUnknownUnit),
		errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrCategoryNotInKind),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, errInvalidOccupancyStatus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound), errors.Is(err, report.ErrUnknownArtifact):
		return http.StatusNotFound
	case errors.Is(err, services.ErrLegacyRecord):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the message shown to the user for err.
func messageFor(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return "Data inválida."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Valor inválido."
	case errors.Is(err, core.ErrNegativeAmount):
		return "O valor não pode ser negativo."
	case errors.Is(err, core.ErrUnknownUnit):
		return "Apartamento inválido."
	case errors.Is(err, core.ErrUnknownKind):
		return "Tipo inválido."
	case errors.Is(err, core.ErrCategoryNotInKind):
		return "A categoria não pertence ao tipo selecionado."
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Descrição muito longa (máximo 200 caracteres)."
	case errors.Is(err, errInvalidOccupancyStatus):
		return "Status inválido."
	case errors.Is(err, ledger.ErrInvalidFilter):
		return "Filtro inválido."
	case errors.Is(err, services.ErrNotFound):
		return "Transação não encontrada."
	case errors.Is(err, services.ErrLegacyRecord):
		return "Registro legado: não pode ser editado, apenas excluído."
	case errors.Is(err, report.ErrUnknownArtifact):
		return "Arquivo desconhecido."
	default:
		return "Erro ao acessar os dados: " + err.Error()
	}
}

func errorNotice(err error) *notice {
	return &notice{Type: NotificationError, Message: messageFor(err)}
}
