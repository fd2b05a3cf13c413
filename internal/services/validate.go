package services

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Client-facing validation messages
const (
	msgAllFieldsRequired = "All fields are required"
	msgEmailRequired     = "Email is required"
	msgInvalidEmail      = "Invalid email address"
	msgInvalidZones      = "Number of zones must be at least 1"
	msgInvalidSolution   = "Invalid preferred solution"
	msgInvalidBody       = "Invalid request body"
)

var emailRegex = regexp.MustCompile(`(?i)^[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}$`)

// IsValidEmail reports whether s looks like local@domain.tld
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// IsHoneypotTriggered reports whether the hidden form field was filled in,
// which only automated form fillers do.
func IsHoneypotTriggered(value string) bool {
	return strings.TrimSpace(value) != ""
}

// allPresent reports whether every value is non-empty after trimming
func allPresent(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// maxZones keeps the parsed count inside the zones column
const maxZones = math.MaxInt32

// parseZones parses a zone count, which must be a whole number of at least 1.
// "3" and "3.0" are both 3; "3.5" is rejected.
func parseZones(raw string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.Trunc(f) != f || f < 1 || f > maxZones {
		return 0, false
	}
	return int(f), true
}

// NumberField holds a form value that clients send either as a JSON number or
// as a numeric string. The raw text is kept so validation can report on it.
type NumberField string

// UnmarshalJSON accepts strings, numbers and null
func (n *NumberField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberField(s)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return err
		}
		*n = NumberField(num.String())
		return nil
	}
}
