package domain

import (
	"regexp"
	"strings"
)

const (
	AccessCodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	AccessCodeSegments    = 3
	AccessCodeSegmentSize = 4
	AccessCodeSeparator   = "-"
)

var accessCodePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

func IsValidAccessCode(value string) bool {
	return accessCodePattern.MatchString(value)
}

// NormalizeAccessCode cleans up codes typed by hand: surrounding spaces and
// lowercase letters are common when users copy a code from a message.
func NormalizeAccessCode(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
