// Copyright (C) 2025 Phoenix Labs (dev@phoenixlabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for user-provided
// text that flows into LLM prompts and semantic-store queries.
package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQueryLength is the maximum accepted query length in runes. Longer
// problem descriptions dilute the embedding signal and blow up the
// classification prompt.
const MaxQueryLength = 1000

// ValidateQuery validates a free-text problem description.
//
// Valid queries:
//   - are non-empty after trimming whitespace
//   - contain at most MaxQueryLength runes
//   - contain no control characters other than newline and tab
//
// Returns an error describing the first violated rule.
func ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if n := utf8.RuneCountInString(trimmed); n > MaxQueryLength {
		return fmt.Errorf("query too long: %d runes (max %d)", n, MaxQueryLength)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return fmt.Errorf("query contains control character U+%04X", r)
		}
	}

	return nil
}

// SanitizeQuery normalizes and validates a query. Returns the trimmed
// query with internal whitespace runs collapsed to single spaces, or an
// error if the query is invalid.
//
//	safeQuery, err := validation.SanitizeQuery(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeQuery(query string) (string, error) {
	if err := ValidateQuery(query); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(query), " "), nil
}
