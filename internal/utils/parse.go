// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("10", 0)  // returns 10
//	n = utils.AtoiDefault("", 1000)  // returns 1000
//	n = utils.AtoiDefault("ten", 10) // returns 10
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// AtoiPositive converts a string to a positive int. Empty, unparseable or
// non-positive inputs fall back to def. Useful for form fields like chapter
// counts that must never be zero or negative.
func AtoiPositive(s string, def int) int {
	n := AtoiDefault(s, def)
	if n < 1 {
		return def
	}
	return n
}
