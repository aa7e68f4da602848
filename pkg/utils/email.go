package utils

import "strings"

// NormalizeEmail trims surrounding whitespace and lower-cases the domain part.
// The local part is left untouched since some mail servers treat it as case-sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
