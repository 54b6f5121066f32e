// Package validation collects per-field violations for request payloads.
package validation

import (
	"regexp"
	"sort"
	"strings"
)

// Violations maps a field name to the reason it was rejected.
type Violations map[string]string

// Violation reasons.
const (
	ReasonRequired = "required"
	ReasonFormat   = "invalid_format"
	ReasonChoice   = "invalid_choice"
)

var (
	emailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
)

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violating field names in sorted order.
func (v Violations) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Has reports whether any field failed for the given reason.
func (v Violations) Has(reason string) bool {
	for _, r := range v {
		if r == reason {
			return true
		}
	}
	return false
}

// Required records field as missing when value is blank.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = ReasonRequired
	}
}

// Email records a format violation for a non-blank value that is not an
// address of the form local@domain.tld.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	if !IsEmail(value) {
		v[field] = ReasonFormat
	}
}

// Phone records a format violation for a non-blank value that is not
// exactly ten digits.
func Phone(field, value string, v Violations) {
	if value == "" {
		return
	}
	if !phonePattern.MatchString(value) {
		v[field] = ReasonFormat
	}
}

// OneOf records a violation when value is not one of allowed.
func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = ReasonChoice
}

func IsEmail(s string) bool { return emailPattern.MatchString(s) }
