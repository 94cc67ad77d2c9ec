package cache

import (
	"strings"
	"time"
	"unicode"
)

// NormalizeLocation lowercases the location name and replaces each whitespace
// character with an underscore. The replacement is strictly per-character:
// "san   onofre" keeps three underscores. Callers that want one canonical key
// per venue must pass the canonical venue name.
func NormalizeLocation(location string) string {
	lowered := strings.ToLower(location)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, lowered)
}

// EncodeKey derives the store key for a (date, location) pair. Date must be in
// DateLayout form; the result is deterministic and distinct (date, normalized
// location) pairs never collide because the date prefix has a fixed width.
func EncodeKey(date, location string) string {
	return date + "_" + NormalizeLocation(location)
}

// ValidDate reports whether the value is a well-formed calendar date in
// DateLayout form.
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}
