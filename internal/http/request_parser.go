// Package http serves the dashboard: filters, the entry and occupancy forms, the
// transaction list, downloads and the operational endpoints.
//
// This file holds the helpers that turn form submissions and cookies into domain values.

package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"alugueis/internal/core"
	"alugueis/internal/ledger"
)

// Form field names of the entry form.
const (
	fieldDate        = "data"
	fieldUnit        = "apartamento"
	fieldDescription = "descricao"
	fieldKind        = "tipo"
	fieldCategory    = "categoria"
	fieldAmount      = "valor"
	fieldOccupied    = "status"
	fieldReturn      = "retorno"
)

// formStateCookie carries the kind and category last used in the entry form.
const formStateCookie = "alugueis_form"

// entryForm holds the raw values of the entry form, so a rejected submission can be shown
// again as typed.
type entryForm struct {
	Action      string
	ID          string
	Date        string
	Unit        string
	Description string
	Kind        core.Kind
	Category    core.Category
	Amount      string
	ReadOnly    bool
}

// readEntryForm collects the entry form values without validating them.
func readEntryForm(form url.Values) entryForm {
	return entryForm{
		Date:        strings.TrimSpace(form.Get(fieldDate)),
		Unit:        sanitizeInput(form.Get(fieldUnit)),
		Description: sanitizeInput(form.Get(fieldDescription)),
		Kind:        core.Kind(sanitizeInput(form.Get(fieldKind))),
		Category:    core.Category(sanitizeInput(form.Get(fieldCategory))),
		Amount:      strings.TrimSpace(form.Get(fieldAmount)),
	}
}

// Transaction converts the form into a transaction. The result is not validated against
// the closed sets; the service does that on write.
func (f entryForm) Transaction() (core.Transaction, error) {
	date, err := ledger.ParseDate(f.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:        date,
		Unit:        f.Unit,
		Description: f.Description,
		Kind:        f.Kind,
		Category:    f.Category,
		Amount:      amount,
	}, nil
}

// entryFormFor fills the form with a stored transaction for editing.
func entryFormFor(tx core.Transaction) entryForm {
	return entryForm{
		Action:      transactionPath(tx.ID),
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Unit:        tx.Unit,
		Description: tx.Description,
		Kind:        tx.Kind,
		Category:    tx.Category,
		Amount:      tx.Amount.String(),
		ReadOnly:    tx.Legacy(),
	}
}

// transactionPath is the address of one transaction; edit and delete hang below it.
func transactionPath(id string) string {
	return "/transactions/" + url.PathEscape(id)
}

// errInvalidOccupancyStatus reports a status other than Ocupado or Vago.
var errInvalidOccupancyStatus = errors.New("invalid occupancy status")

// parseOccupied accepts the status labels and boolean spellings.
func parseOccupied(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case strings.ToLower(core.StatusOccupied), "true", "1":
		return true, nil
	case strings.ToLower(core.StatusVacant), "false", "0":
		return false, nil
	}
	return false, errInvalidOccupancyStatus
}

// returnFilter reads the filter the form was submitted from. Invalid values fall back to
// no filter, so redirects always point at a well-formed dashboard URL.
func returnFilter(form url.Values) ledger.Filter {
	q, err := url.ParseQuery(form.Get(fieldReturn))
	if err != nil {
		return ledger.Filter{}
	}
	f, err := ledger.FilterFromQuery(q)
	if err != nil {
		return ledger.Filter{}
	}
	return f
}

// dashboardURL returns the dashboard address for filter f.
func dashboardURL(f ledger.Filter) string {
	if q := f.Query(); q != "" {
		return "/?" + q
	}
	return "/"
}

// readFormState decodes the form state cookie; a missing or tampered cookie yields the
// default state.
func readFormState(r *http.Request) core.FormState {
	c, err := r.Cookie(formStateCookie)
	if err != nil {
		return core.DefaultFormState()
	}
	v, err := url.ParseQuery(c.Value)
	if err != nil {
		return core.DefaultFormState()
	}
	return core.FormState{
		Kind:     core.Kind(v.Get("kind")),
		Category: core.Category(v.Get("category")),
	}.Normalize()
}

func writeFormState(w http.ResponseWriter, st core.FormState) {
	v := url.Values{}
	v.Set("kind", string(st.Kind))
	v.Set("category", string(st.Category))
	http.SetCookie(w, &http.Cookie{
		Name:     formStateCookie,
		Value:    v.Encode(),
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sanitizeInput removes control characters except tab, newline and carriage return, and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
