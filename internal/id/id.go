// Package id formats and parses journal entry references. References are
// sequential within an accounting period: "2025-01-001" is the first
// entry of period 2025-01.
package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatRef returns an entry reference like "2025-01-001".
func FormatRef(periodID string, seq int) string {
	return fmt.Sprintf("%s-%03d", periodID, seq)
}

// ParseRef splits an entry reference into its period and sequence.
func ParseRef(ref string) (periodID string, seq int, err error) {
	i := strings.LastIndex(ref, "-")
	if i <= 0 || i == len(ref)-1 {
		return "", 0, fmt.Errorf("invalid entry ref format: %q", ref)
	}

	periodID = ref[:i]
	if !validPeriod(periodID) {
		return "", 0, fmt.Errorf("invalid period in entry ref %q", ref)
	}

	seq, err = strconv.Atoi(ref[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in entry ref %q: %w", ref, err)
	}
	return periodID, seq, nil
}

// validPeriod checks the "YYYY-MM" shape without pulling in time parsing.
func validPeriod(p string) bool {
	parts := strings.Split(p, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return false
	}
	month, err := strconv.Atoi(parts[1])
	return err == nil && month >= 1 && month <= 12
}
