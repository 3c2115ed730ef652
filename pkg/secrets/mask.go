// Package secrets masks credentials before they reach logs or terminal output.
package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// Style selects how a value is masked.
type Style string

const (
	// StyleFull replaces the whole value.
	StyleFull Style = "full"
	// StylePartial keeps a short prefix.
	StylePartial Style = "partial"
	// StyleHash replaces the value with a short SHA-256 fingerprint, which
	// lets two log lines be correlated without revealing the credential.
	StyleHash Style = "hash"
)

const (
	defaultShowChars   = 6
	defaultReplacement = "***"
)

// MaskValue masks a sensitive value using the given style.
func MaskValue(value string, style Style) string {
	if value == "" {
		return ""
	}

	switch style {
	case StyleFull:
		return defaultReplacement
	case StyleHash:
		return hashMask(value)
	default:
		return partialMask(value, defaultShowChars, defaultReplacement)
	}
}

// Token masks a token for display, keeping a short prefix.
func Token(value string) string {
	return MaskValue(value, StylePartial)
}

// Attr returns a slog attribute carrying the fingerprint of a credential.
func Attr(key, value string) slog.Attr {
	return slog.String(key, MaskValue(value, StyleHash))
}

// partialMask shows the first N characters and masks the rest.
func partialMask(value string, showChars int, replacement string) string {
	// If value is too short, fully mask it
	if len(value) <= showChars*2 {
		return replacement
	}

	return value[:showChars] + replacement
}

// hashMask creates a SHA256 hash of the value for audit purposes.
func hashMask(value string) string {
	hash := sha256.Sum256([]byte(value))
	hashStr := hex.EncodeToString(hash[:])
	return "sha256:" + hashStr[:16]
}
