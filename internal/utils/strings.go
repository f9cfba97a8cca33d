package utils

import (
	"net/mail"
	"strings"
	"unicode"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps digits and a leading +.
func NormalizePhone(phone string) string {
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range cleaned {
		if (i == 0 && r == '+') || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return false
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return false
	}
	domain := normalized[strings.LastIndexByte(normalized, '@')+1:]
	return len(domain) > 2 && strings.Contains(domain, ".")
}

// IsValidPhone accepts an empty phone; otherwise it needs 7 to 15 digits.
func IsValidPhone(phone string) bool {
	n := NormalizePhone(phone)
	if n == "" {
		return true
	}
	digits := strings.TrimPrefix(n, "+")
	return len(digits) >= 7 && len(digits) <= 15
}
