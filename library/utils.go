// Package library contains helpers and errors shared by every domain
package library

import "strings"

const bearerPrefix = "bearer "

// HasBearerPrefix reports whether value starts with a case-insensitive "Bearer "
func HasBearerPrefix(value string) bool {
	value = strings.TrimSpace(value)
	return len(value) > len(bearerPrefix) &&
		strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix)
}

// StripBearerPrefix trims value and removes any number of leading "Bearer " prefixes
func StripBearerPrefix(value string) string {
	out := strings.TrimSpace(value)
	for HasBearerPrefix(out) {
		out = strings.TrimSpace(out[len(bearerPrefix):])
	}

	return out
}
