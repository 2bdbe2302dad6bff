// Package masking redacts likely-sensitive substrings from record text.
// Redaction is best effort: it hides common email addresses and long digit runs
// (phone, account and card numbers) and must not be treated as a data-loss guarantee.
package masking

import "regexp"

const (
	// EmailToken replaces every email address.
	EmailToken = "[REDACTED_EMAIL]"
	// NumberToken replaces every standalone run of seven or more digits.
	NumberToken = "[REDACTED_NUMBER]"
)

var (
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	digitPattern = regexp.MustCompile(`\b[0-9]{7,}\b`)
)

// Mask returns text with emails replaced first and long digit runs second.
// Nothing else about the text changes.
func Mask(text string) string {
	if text == "" {
		return text
	}
	out := emailPattern.ReplaceAllLiteralString(text, EmailToken)
	return digitPattern.ReplaceAllLiteralString(out, NumberToken)
}
