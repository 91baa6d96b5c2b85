package dto

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// parseNonNegative reads an optional integer query parameter.
func parseNonNegative(q url.Values, field string) (int, bool, []ValidationError) {
	raw := strings.TrimSpace(q.Get(field))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false, []ValidationError{{Field: field, Message: "must be a non-negative integer"}}
	}
	return n, true, nil
}

// validateChoice accepts a blank value or one of choices, ignoring case.
func validateChoice(field, value string, choices []string) []ValidationError {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || slices.Contains(choices, value) {
		return nil
	}
	return []ValidationError{{Field: field, Message: "must be one of " + strings.Join(choices, ", ")}}
}

func validateRequired(field, value string) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	return nil
}
