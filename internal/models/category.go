package models

import "strings"

// Category is one of the fixed set of task categories. The set is closed;
// there is no user-defined or free-form category.
type Category string

const (
	CategoryWork      Category = "Work"
	CategoryPersonal  Category = "Personal"
	CategoryErrands   Category = "Errands"
	CategoryHealth    Category = "Health"
	CategoryFinance   Category = "Finance"
	CategoryEducation Category = "Education"
	CategoryOther     Category = "Other"
)

// Categories returns the full category set in display order.
func Categories() []Category {
	return []Category{
		CategoryWork,
		CategoryPersonal,
		CategoryErrands,
		CategoryHealth,
		CategoryFinance,
		CategoryEducation,
		CategoryOther,
	}
}

// IsValid reports whether c is a member of the category set. Comparison is
// exact; coercion happens in ParseCategory.
func (c Category) IsValid() bool {
	for _, valid := range Categories() {
		if c == valid {
			return true
		}
	}
	return false
}

// ParseCategory resolves a string to a member of the category set,
// tolerating surrounding whitespace and letter casing. Anything outside the
// set returns false.
func ParseCategory(value string) (Category, bool) {
	trimmed := strings.TrimSpace(value)
	for _, c := range Categories() {
		if strings.EqualFold(trimmed, string(c)) {
			return c, true
		}
	}
	return "", false
}
