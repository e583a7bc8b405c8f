package authapi

import (
	"encoding/json"
	"strings"
)

// ParseVerified interprets the backend's email-verification flag, which has
// been observed as a bool, a number, and a handful of string spellings.
// Anything unrecognized, including absence, counts as unverified.
func ParseVerified(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n == 1
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true
		}
	}

	return false
}
