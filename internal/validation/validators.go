package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxSyllabusLength bounds the syllabus sent to the task generator, in runes.
const MaxSyllabusLength = 20000

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("hhmm", validateHHMM); err != nil {
		panic(fmt.Sprintf("failed to register hhmm validator: %v", err))
	}
	if err := Validate.RegisterValidation("syllabus", validateSyllabus); err != nil {
		panic(fmt.Sprintf("failed to register syllabus validator: %v", err))
	}
}

func validateHHMM(fl validator.FieldLevel) bool {
	return ValidateHHMM(fl.Field().String()) == nil
}

func validateSyllabus(fl validator.FieldLevel) bool {
	return ValidateSyllabus(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateHHMM checks a 24-hour "HH:MM" clock time.
func ValidateHHMM(value string) error {
	if len(value) != 5 {
		return fmt.Errorf("invalid time %q (must be HH:MM)", value)
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("invalid time %q (must be HH:MM)", value)
	}
	return nil
}

// ValidateSyllabus requires non-blank text no longer than MaxSyllabusLength.
func ValidateSyllabus(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("syllabus is required")
	}
	if n := utf8.RuneCountInString(value); n > MaxSyllabusLength {
		return fmt.Errorf("syllabus too long: %d characters (max %d)", n, MaxSyllabusLength)
	}
	return nil
}
