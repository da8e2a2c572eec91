package core

import "fmt"

// UnitCount is the number of rentable apartments in the building.
const UnitCount = 16

// Comum is the shared pseudo-unit used for building-wide expenses.
const Comum = "Comum"

const (
	Income  Kind = "Receita"
	Expense Kind = "Despesa"
)

type (
	// Kind classifies a transaction as income or expense.
	Kind string

	// Category is a kind-dependent label for a transaction.
	Category string
)

const (
	CategoryRent           Category = "Aluguel"
	CategoryOther          Category = "Outros"
	CategoryInternet       Category = "Internet"
	CategoryAdministration Category = "Administração"
	CategoryElectricity    Category = "Luz"
	CategoryWater          Category = "Água"
	CategoryPropertyTax    Category = "IPTU"
	CategoryMaintenance    Category = "Manutenção"
)

var (
	// IncomeCategories lists the categories allowed for income entries, in display order.
	IncomeCategories = []Category{CategoryRent, CategoryOther}

	// ExpenseCategories lists the categories allowed for expense entries, in display order.
	ExpenseCategories = []Category{
		CategoryInternet,
		CategoryAdministration,
		CategoryElectricity,
		CategoryWater,
		CategoryPropertyTax,
		CategoryMaintenance,
		CategoryOther,
	}

	// Kinds lists both kinds, income first.
	Kinds = []Kind{Income, Expense}

	rentableUnits = buildRentableUnits()
	allUnits      = append([]string{Comum}, rentableUnits...)
)

func buildRentableUnits() []string {
	out := make([]string, UnitCount)
	for i := range out {
		out[i] = UnitName(i + 1)
	}
	return out
}

// UnitName returns the identifier of the n-th apartment ("Apto n").
func UnitName(n int) string {
	return fmt.Sprintf("Apto %d", n)
}

// RentableUnits returns the 16 apartments in their fixed order.
func RentableUnits() []string {
	return append([]string(nil), rentableUnits...)
}

// AllUnits returns Comum followed by the 16 apartments. Every report enumerates units in this order.
func AllUnits() []string {
	return append([]string(nil), allUnits...)
}

// IsUnit reports whether u is Comum or one of the apartments.
func IsUnit(u string) bool {
	return u == Comum || IsRentableUnit(u)
}

// IsRentableUnit reports whether u is one of the 16 apartments.
func IsRentableUnit(u string) bool {
	for _, v := range rentableUnits {
		if v == u {
			return true
		}
	}
	return false
}

// Valid reports whether k is Income or Expense.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts the stored label of a kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// CategoriesFor returns the closed category list of the given kind, or nil for an unknown kind.
func CategoriesFor(k Kind) []Category {
	switch k {
	case Income:
		return append([]Category(nil), IncomeCategories...)
	case Expense:
		return append([]Category(nil), ExpenseCategories...)
	default:
		return nil
	}
}

// Allows reports whether c belongs to the category list of k.
func (k Kind) Allows(c Category) bool {
	for _, v := range CategoriesFor(k) {
		if v == c {
			return true
		}
	}
	return false
}
