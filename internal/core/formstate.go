package core

// FormState remembers the kind and category last used in the entry form of one session.
// It is passed into each render cycle and returned updated; nothing is kept globally.
type FormState struct {
	Kind     Kind
	Category Category
}

// DefaultFormState selects income with its first category.
func DefaultFormState() FormState {
	return FormState{Kind: Income, Category: IncomeCategories[0]}
}

// WithKind switches the kind. Changing the kind resets the category to the first one of
// the new kind; an unknown kind leaves the state unchanged.
func (s FormState) WithKind(k Kind) FormState {
	if !k.Valid() {
		return s.Normalize()
	}
	if k == s.Kind && k.Allows(s.Category) {
		return s
	}
	return FormState{Kind: k, Category: CategoriesFor(k)[0]}
}

// WithCategory remembers c when it belongs to the current kind.
func (s FormState) WithCategory(c Category) FormState {
	s = s.Normalize()
	if s.Kind.Allows(c) {
		s.Category = c
	}
	return s
}

// Normalize repairs a state decoded from untrusted input.
func (s FormState) Normalize() FormState {
	if !s.Kind.Valid() {
		return DefaultFormState()
	}
	if !s.Kind.Allows(s.Category) {
		s.Category = CategoriesFor(s.Kind)[0]
	}
	return s
}

// Categories returns the category options for the current kind.
func (s FormState) Categories() []Category {
	return CategoriesFor(s.Normalize().Kind)
}
