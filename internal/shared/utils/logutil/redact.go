// Package logutil shortens or masks values before they reach the logs.
package logutil

import "strings"

// TruncateForLog keeps the first maxLen bytes of s and marks the cut with "...".
// Signature headers and provider tokens are logged this way.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// MaskEmail keeps the first rune of the local part and the domain:
// "doctor@clinic.example" becomes "d***@clinic.example".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return "***"
	}
	if local == "" {
		return "***@" + domain
	}
	r := []rune(local)
	return string(r[0]) + "***@" + domain
}
