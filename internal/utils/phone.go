package utils

import "strings"

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalPhone builds the canonical phone identifier: country-code
// digits concatenated with local-number digits, no separators. If the
// entered number already starts with the code digits it is used as-is,
// so "96512345678" with code "+965" does not become "96596512345678".
func CanonicalPhone(countryCode, number string) string {
	code := DigitsOnly(countryCode)
	num := DigitsOnly(number)
	if code != "" && strings.HasPrefix(num, code) {
		return num
	}
	return code + num
}
