package core

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

type (
	// Transaction is one income or expense entry of the ledger.
	Transaction struct {
		ID          string // durable synthetic key, independent of the row position
		Date        civil.Date
		Unit        string
		Description string
		Kind        Kind
		Category    Category
		Amount      Money
	}

	// OccupancyRecord is the occupancy status of one rentable unit.
	OccupancyRecord struct {
		Unit        string
		Occupied    bool
		LastUpdated civil.Date
	}

	// Occupancy is the full occupancy table, one record per rentable unit.
	Occupancy []OccupancyRecord
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrUnknownUnit        = errors.New("unknown unit")
	ErrUnknownKind        = errors.New("unknown kind")
	ErrCategoryNotInKind  = errors.New("category does not belong to kind")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")

	ErrMissingOccupancy    = errors.New("missing occupancy record")
	ErrDuplicateOccupancy  = errors.New("duplicate occupancy record")
	ErrUnexpectedOccupancy = errors.New("occupancy record for a non-rentable unit")
)

// MaxDescriptionLen bounds the free-text description of a transaction.
const MaxDescriptionLen = 200

// Validate checks a transaction against the closed sets. It is applied on every write;
// rows read back from the store are not required to pass it.
func (t Transaction) Validate() error {
	if !t.Date.IsValid() || t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !IsUnit(t.Unit) {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, t.Unit)
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
	if !t.Kind.Allows(t.Category) {
		return fmt.Errorf("%w: %q is not a %s category", ErrCategoryNotInKind, t.Category, t.Kind)
	}
	if len([]rune(strings.TrimSpace(t.Description))) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Legacy reports whether a stored transaction falls outside the closed sets.
// Such rows are kept and reported but cannot be edited.
func (t Transaction) Legacy() bool {
	return t.Validate() != nil
}

// Status returns the display label of the record's occupancy.
func (r OccupancyRecord) Status() string {
	return StatusLabel(r.Occupied)
}

// StatusLabel maps an occupied flag to "Ocupado" or "Vago".
func StatusLabel(occupied bool) string {
	if occupied {
		return StatusOccupied
	}
	return StatusVacant
}

const (
	StatusOccupied = "Ocupado"
	StatusVacant   = "Vago"
)

// Lookup returns the record of the given unit.
func (o Occupancy) Lookup(unit string) (OccupancyRecord, bool) {
	for _, r := range o {
		if r.Unit == unit {
			return r, true
		}
	}
	return OccupancyRecord{}, false
}

// Validate checks that the table holds exactly one record per rentable unit and nothing else.
func (o Occupancy) Validate() error {
	seen := make(map[string]bool, len(o))
	for _, r := range o {
		if !IsRentableUnit(r.Unit) {
			return fmt.Errorf("%w: %q", ErrUnexpectedOccupancy, r.Unit)
		}
		if seen[r.Unit] {
			return fmt.Errorf("%w: %s", ErrDuplicateOccupancy, r.Unit)
		}
		seen[r.Unit] = true
	}
	for _, u := range rentableUnits {
		if !seen[u] {
			return fmt.Errorf("%w: %s", ErrMissingOccupancy, u)
		}
	}
	return nil
}

// DefaultOccupancy returns the initial table: every unit occupied, updated on the given day.
func DefaultOccupancy(today civil.Date) Occupancy {
	out := make(Occupancy, 0, UnitCount)
	for _, u := range rentableUnits {
		out = append(out, OccupancyRecord{Unit: u, Occupied: true, LastUpdated: today})
	}
	return out
}

// Clone returns an independent copy of the table.
func (o Occupancy) Clone() Occupancy {
	return append(Occupancy(nil), o...)
}
