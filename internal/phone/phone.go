package phone

import "strings"

// Normalize converts a phone number to international digits without "+".
// A national number with a leading trunk 0 gets countryCode prepended, and a
// stray trunk 0 after the country code is dropped.
func Normalize(number, countryCode string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if countryCode == "" || digits == "" {
		return digits
	}

	// 05XXXXXXXX -> 9725XXXXXXXX
	if strings.HasPrefix(digits, "0") && !strings.HasPrefix(digits, "00") {
		digits = countryCode + digits[1:]
	}
	// 00972... international dialing prefix
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	}
	// 9720XXXXXXXXX -> 972XXXXXXXXX
	if strings.HasPrefix(digits, countryCode+"0") {
		digits = countryCode + digits[len(countryCode)+1:]
	}
	return digits
}
