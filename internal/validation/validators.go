package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/taskflow/taskflow-api/internal/models"
)

const (
	// MaxDescriptionLength is the maximum length for a todo description
	MaxDescriptionLength = 200
	// MinDescriptionLength is the minimum length for a todo description
	MinDescriptionLength = 1
	// DueDateLayout is the calendar-day format for due dates
	DueDateLayout = "2006-01-02"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register category validator: %v", err))
	}
}

// validateCategory validates that a string is a member of the fixed category set
func validateCategory(fl validator.FieldLevel) bool {
	_, ok := models.ParseCategory(fl.Field().String())
	return ok
}

// SanitizeDescription trims whitespace and removes control characters
func SanitizeDescription(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateDescription checks an already-sanitized description against the
// length bounds. Lengths are counted in characters, not bytes.
func ValidateDescription(description string) error {
	n := utf8.RuneCountInString(description)
	if n < MinDescriptionLength {
		return fmt.Errorf("description is required and cannot be empty")
	}
	if n > MaxDescriptionLength {
		return fmt.Errorf("description exceeds maximum length of %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateCategory validates a category string value
func ValidateCategory(value string) error {
	if _, ok := models.ParseCategory(value); !ok {
		return fmt.Errorf("invalid category: %s (must be one of %v)", value, models.Categories())
	}
	return nil
}

// ParseDueDate parses a calendar-day due date. Due dates carry no time
// component; they are normalized to midnight UTC at this boundary.
func ParseDueDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DueDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date: %s (expected %s)", value, DueDateLayout)
	}
	return t, nil
}
