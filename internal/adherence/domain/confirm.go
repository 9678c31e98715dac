package domain

import "strings"

// ConfirmationPhrases are the free-text commands accepted as a whole-day
// "I took everything" acknowledgement.
var ConfirmationPhrases = []string{"i took my medicine", "taken", "done", "yes"}

// IsConfirmation normalizes command and reports whether it contains any
// confirmation phrase.
func IsConfirmation(command string) bool {
	normalized := strings.ToLower(strings.TrimSpace(command))
	if normalized == "" {
		return false
	}
	for _, phrase := range ConfirmationPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}
