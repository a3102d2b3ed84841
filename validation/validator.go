package validation

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/loomworks/authcore/errors"
)

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of ValidateParams. Errors carries every failure;
// Sanitized holds the cleaned values for fields that passed.
type Result struct {
	Valid     bool
	Errors    []FieldError
	Sanitized map[string]any
}

// ToError converts a failed result into an aggregated AppError, or nil
// when the result is valid.
func (r *Result) ToError() error {
	if r.Valid {
		return nil
	}
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.ValidationFailed(strings.Join(messages, "; "), r.Errors)
}

// ValidateField checks a single value against a rule. On success the
// sanitized value is returned; on failure a FieldError citing the field
// name. Checks run in a fixed order: required, type, dangerous-pattern
// screen, length, range, pattern, enum.
func ValidateField(name string, value any, rule Rule) (any, *FieldError) {
	if isEmpty(value) {
		if rule.Required {
			return nil, fail(name, rule, "is required")
		}
		return value, nil
	}

	switch rule.Type {
	case TypeNumber:
		return validateNumber(name, value, rule)
	case TypeBoolean:
		return validateBoolean(name, value, rule)
	case TypeEmail:
		return validateEmail(name, value, rule)
	default:
		return validateString(name, value, rule)
	}
}

func validateString(name string, value any, rule Rule) (any, *FieldError) {
	s, ok := value.(string)
	if !ok {
		return nil, fail(name, rule, "must be a string")
	}

	if IsDangerous(s) {
		return nil, fail(name, rule, "contains disallowed content")
	}
	s = Sanitize(s)

	if rule.MinLength > 0 && len(s) < rule.MinLength {
		return nil, fail(name, rule, fmt.Sprintf("must be at least %d characters", rule.MinLength))
	}
	if rule.MaxLength > 0 && len(s) > rule.MaxLength {
		return nil, fail(name, rule, fmt.Sprintf("must be %d characters or less", rule.MaxLength))
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(s) {
		return nil, fail(name, rule, "does not match required format")
	}
	if len(rule.Enum) > 0 && !inEnum(s, rule.Enum) {
		return nil, fail(name, rule, "must be one of: "+strings.Join(rule.Enum, ", "))
	}
	return s, nil
}

func validateNumber(name string, value any, rule Rule) (any, *FieldError) {
	n, ok := toNumber(value)
	if !ok {
		return nil, fail(name, rule, "must be a number")
	}
	if rule.Min != nil && n < *rule.Min {
		return nil, fail(name, rule, fmt.Sprintf("must be at least %v", *rule.Min))
	}
	if rule.Max != nil && n > *rule.Max {
		return nil, fail(name, rule, fmt.Sprintf("must be %v or less", *rule.Max))
	}
	return n, nil
}

func validateBoolean(name string, value any, rule Rule) (any, *FieldError) {
	switch b := value.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed, nil
		}
	}
	return nil, fail(name, rule, "must be a boolean")
}

func validateEmail(name string, value any, rule Rule) (any, *FieldError) {
	s, ok := value.(string)
	if !ok {
		return nil, fail(name, rule, "must be an email address")
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if IsDangerous(s) {
		return nil, fail(name, rule, "contains disallowed content")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return nil, fail(name, rule, "must be a valid email address")
	}
	if rule.MaxLength > 0 && len(s) > rule.MaxLength {
		return nil, fail(name, rule, fmt.Sprintf("must be %d characters or less", rule.MaxLength))
	}
	return s, nil
}

// ValidateParams validates every key in params against the merged rule
// table (BuiltinRules + custom) and checks that all requiredFields are
// present. Failures accumulate; the caller receives every offending field
// in one pass. Fields without an explicit rule still go through the
// dangerous-pattern screen and sanitization.
func ValidateParams(params map[string]any, requiredFields []string, custom RuleSet) Result {
	rules := BuiltinRules.Merge(custom)
	result := Result{Sanitized: make(map[string]any, len(params))}

	for _, name := range requiredFields {
		if isEmpty(params[name]) {
			result.Errors = append(result.Errors, FieldError{Field: name, Message: "is required"})
		}
	}

	for name, value := range params {
		rule, ok := rules[name]
		if !ok {
			// No explicit rule: generic screen + sanitize for strings,
			// pass everything else through.
			if s, isStr := value.(string); isStr {
				if IsDangerous(s) {
					result.Errors = append(result.Errors, FieldError{Field: name, Message: "contains disallowed content"})
					continue
				}
				result.Sanitized[name] = Sanitize(s)
			} else {
				result.Sanitized[name] = value
			}
			continue
		}

		sanitized, fieldErr := ValidateField(name, value, rule)
		if fieldErr != nil {
			// Required-field misses are already recorded above.
			if !(isEmpty(value) && containsField(requiredFields, name)) {
				result.Errors = append(result.Errors, *fieldErr)
			}
			continue
		}
		if !isEmpty(value) {
			result.Sanitized[name] = sanitized
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// --- helpers ---

func fail(name string, rule Rule, msg string) *FieldError {
	if rule.Message != "" {
		msg = rule.Message
	}
	return &FieldError{Field: name, Message: msg}
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func inEnum(s string, enum []string) bool {
	for _, e := range enum {
		if s == e {
			return true
		}
	}
	return false
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
