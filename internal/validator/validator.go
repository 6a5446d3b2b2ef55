package validator

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

type Type int

const (
	TypeString Type = iota
	TypeNumber
	TypeDate
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Rule describes the constraints for a single field. Label is the name used
// in violation messages ("Title is required").
type Rule struct {
	Field    string
	Label    string
	Required bool
	Type     Type
	MinLen   int
	MaxLen   int
	Enum     []string
}

// Schema is an ordered rule set. AnyOf, when set, additionally requires at
// least one of the listed fields to be present (used by query schemas).
type Schema struct {
	Rules    []Rule
	AnyOf    []string
	AnyOfMsg string
}

// Validate checks every rule against the input and returns all violation
// messages in schema order; nil means valid. It is a pure function, the
// input is never modified.
func (s Schema) Validate(input map[string]interface{}) []string {
	var violations []string

	if len(s.AnyOf) > 0 {
		found := false
		for _, field := range s.AnyOf {
			if isPresent(input, field) {
				found = true
				break
			}
		}
		if !found {
			violations = append(violations, s.AnyOfMsg)
		}
	}

	for _, rule := range s.Rules {
		violations = append(violations, rule.check(input)...)
	}
	return violations
}

func (r Rule) check(input map[string]interface{}) []string {
	value, ok := input[r.Field]
	if !ok || value == nil || isEmptyString(value) {
		if r.Required {
			return []string{fmt.Sprintf("%s is required", r.Label)}
		}
		return nil
	}

	switch r.Type {
	case TypeString:
		return r.checkString(value)
	case TypeNumber:
		return r.checkNumber(value)
	case TypeDate:
		return r.checkDate(value)
	}
	return nil
}

func (r Rule) checkString(value interface{}) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s must be a string", r.Label)}
	}

	var violations []string
	if r.MinLen > 0 && len(s) < r.MinLen {
		violations = append(violations, fmt.Sprintf("%s must be at least %d characters", r.Label, r.MinLen))
	}
	if r.MaxLen > 0 && len(s) > r.MaxLen {
		violations = append(violations, fmt.Sprintf("%s must be at most %d characters", r.Label, r.MaxLen))
	}
	if len(r.Enum) > 0 && !inList(s, r.Enum) {
		violations = append(violations, fmt.Sprintf("%s must be one of: %s", r.Label, strings.Join(r.Enum, ", ")))
	}
	return violations
}

func (r Rule) checkNumber(value interface{}) []string {
	// JSON numbers decode to float64.
	n, ok := value.(float64)
	if !ok || math.IsNaN(n) {
		return []string{fmt.Sprintf("%s must be a number", r.Label)}
	}
	return nil
}

func (r Rule) checkDate(value interface{}) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s must be a valid date", r.Label)}
	}
	if _, err := ParseDate(s); err != nil {
		return []string{fmt.Sprintf("%s must be a valid date", r.Label)}
	}
	return nil
}

// ParseDate accepts the date formats the API supports.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date value %q", s)
}

// QueryInput reduces query parameters to the shape Validate expects; only
// the first value of each parameter is considered.
func QueryInput(values url.Values) map[string]interface{} {
	input := make(map[string]interface{}, len(values))
	for key := range values {
		if v := values.Get(key); v != "" {
			input[key] = v
		}
	}
	return input
}

func isPresent(input map[string]interface{}, field string) bool {
	value, ok := input[field]
	return ok && value != nil && !isEmptyString(value)
}

func isEmptyString(value interface{}) bool {
	s, ok := value.(string)
	return ok && s == ""
}

func inList(s string, list []string) bool {
	for _, item := range list {
		if s == item {
			return true
		}
	}
	return false
}
