package validator

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	playground "github.com/go-playground/validator/v10"
)

// FieldError identifies a single failed field check
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors accumulates field failures in the order they were found.
// The zero value is ready to use.
type Errors struct {
	list []FieldError
}

// Add records a failure for field
func (e *Errors) Add(field, message string) {
	e.list = append(e.list, FieldError{Field: field, Message: message})
}

// Addf records a formatted failure for field
func (e *Errors) Addf(field, format string, args ...interface{}) {
	e.Add(field, fmt.Sprintf(format, args...))
}

// Merge appends every failure of other, prefixing field names with prefix
// (for example "doctors[2]"). Messages are kept as-is.
func (e *Errors) Merge(prefix string, other *Errors) {
	if other == nil {
		return
	}
	for _, fe := range other.list {
		field := fe.Field
		if prefix != "" {
			field = prefix + "." + fe.Field
		}
		e.list = append(e.list, FieldError{Field: field, Message: fe.Message})
	}
}

// HasErrors reports whether any failure was recorded
func (e *Errors) HasErrors() bool {
	return len(e.list) > 0
}

// Len returns the number of recorded failures
func (e *Errors) Len() int {
	return len(e.list)
}

// List returns a copy of the recorded failures
func (e *Errors) List() []FieldError {
	out := make([]FieldError, len(e.list))
	copy(out, e.list)
	return out
}

// Messages returns the human readable messages only
func (e *Errors) Messages() []string {
	out := make([]string, 0, len(e.list))
	for _, fe := range e.list {
		out = append(out, fe.Message)
	}
	return out
}

// Error implements error so an accumulator can be returned directly
func (e *Errors) Error() string {
	return strings.Join(e.Messages(), " ")
}

// formats is shared; playground validators are safe for concurrent use
var formats = playground.New()

// Required trims raw and records "<label> is required." when nothing is left.
func Required(errs *Errors, field, label, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		errs.Addf(field, "%s is required.", label)
	}
	return value
}

// Email validates an optional address. Blank input is accepted and returned empty.
func Email(errs *Errors, field, label, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if formats.Var(value, "required,email") != nil {
		errs.Addf(field, "Invalid %s.", lowerFirst(label))
	}
	return value
}

// URL validates an optional absolute http(s) URL.
func URL(errs *Errors, field, label, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if !IsAbsoluteURL(value) {
		errs.Addf(field, "Invalid %s.", lowerFirst(label))
	}
	return value
}

// IsAbsoluteURL reports whether value is an absolute http or https URL with a host
func IsAbsoluteURL(value string) bool {
	if formats.Var(value, "required,url") != nil {
		return false
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IntRange parses an optional whole number in [lo, hi]. Blank input yields nil.
func IntRange(errs *Errors, field, label, raw string, lo, hi int) *int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	n, ok := parseDigits(value)
	if !ok || n < lo || n > hi {
		errs.Addf(field, "%s must be a whole number between %d and %d.", label, lo, hi)
		return nil
	}
	return &n
}

// NonNegativeInt parses an optional whole number >= 0. Blank input yields nil.
func NonNegativeInt(errs *Errors, field, label, raw string) *int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	n, ok := parseDigits(value)
	if !ok {
		errs.Addf(field, "%s must be a non-negative whole number.", label)
		return nil
	}
	return &n
}

// NonNegativeNumber parses an optional decimal >= 0. Blank input yields nil.
func NonNegativeNumber(errs *Errors, field, label, raw string) *float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		errs.Addf(field, "%s must be a non-negative number.", label)
		return nil
	}
	return &f
}

// Float parses an optional decimal within [lo, hi]. Blank input yields nil.
func Float(errs *Errors, field, label, raw string, lo, hi float64) *float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || f < lo || f > hi {
		errs.Addf(field, "%s must be a number between %g and %g.", label, lo, hi)
		return nil
	}
	return &f
}

// OneOf checks raw (trimmed) against an exact allowed set. Blank input is
// rejected; wrap with a blank check for optional enums.
func OneOf(errs *Errors, field, label, raw string, allowed ...string) string {
	value := strings.TrimSpace(raw)
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	errs.Addf(field, "Invalid %s.", lowerFirst(label))
	return value
}

// MaxLength records a failure when raw is longer than n characters (runes).
func MaxLength(errs *Errors, field, label, raw string, n int) string {
	if utf8.RuneCountInString(raw) > n {
		errs.Addf(field, "%s must be at most %d characters.", label, n)
	}
	return raw
}

// parseDigits accepts ASCII digits only
func parseDigits(digits string) (int, bool) {
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	// keep acronyms such as "URL" intact
	if len(s) > size {
		next, _ := utf8.DecodeRuneInString(s[size:])
		if unicode.IsUpper(next) {
			return s
		}
	}
	return string(unicode.ToLower(r)) + s[size:]
}
