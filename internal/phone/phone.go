// Package phone canonicalizes phone numbers before they reach the store.
package phone

import "strings"

// Normalize returns the canonical form of a raw phone number. Numbers that do
// not start with "+" get the default country calling code prefixed. This is a
// policy choice rather than validation: digit count and country-code
// correctness are not checked.
func Normalize(raw, defaultCountryCode string) string {
	if strings.HasPrefix(raw, "+") {
		return raw
	}
	return defaultCountryCode + raw
}
