// Package validate holds the pure input checks shared by the services:
// email and password format, card numbers, postal codes and string cleanup.
package validate

import (
	"regexp"
	"strings"
	"unicode"
)

// PasswordMinLength is the shortest password Password accepts.
const PasswordMinLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// zipPatterns maps an upper-cased country code to its postal code format.
var zipPatterns = map[string]*regexp.Regexp{
	"US": regexp.MustCompile(`(?i)^\d{5}(-\d{4})?$`),
	"UK": regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}$`),
	"IN": regexp.MustCompile(`(?i)^\d{6}$`),
}

// Email reports whether s, once trimmed, looks like local@domain.tld.
func Email(s string) bool {
	if s == "" {
		return false
	}
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Password reports whether s is at least PasswordMinLength characters long
// and mixes upper case, lower case and digits.
func Password(s string) bool {
	if len([]rune(s)) < PasswordMinLength {
		return false
	}
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// DigitsOnly strips every non-digit character from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CardNumber runs the Luhn checksum over the digits of s. Separators such as
// spaces or dashes are ignored; 13 to 19 digits are required.
func CardNumber(s string) bool {
	digits := DigitsOnly(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	total := 0
	for i := 0; i < len(digits); i++ {
		n := int(digits[len(digits)-1-i] - '0')
		if i%2 == 1 {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		total += n
	}
	return total%10 == 0
}

// ZipCode validates a postal code for US, UK and IN. Codes for any other
// country are accepted as-is: there is no table for them and rejecting
// unknown formats would block legitimate addresses.
func ZipCode(zip, country string) bool {
	pattern, ok := zipPatterns[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		return true
	}
	return pattern.MatchString(strings.TrimSpace(zip))
}

// SanitizeString trims surrounding whitespace and, when maxLength is
// positive, truncates the result to maxLength characters.
func SanitizeString(s string, maxLength int) string {
	cleaned := strings.TrimSpace(s)
	if maxLength > 0 {
		if runes := []rune(cleaned); len(runes) > maxLength {
			cleaned = string(runes[:maxLength])
		}
	}
	return cleaned
}
