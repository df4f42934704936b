package osm

import (
	"fmt"
	"strings"
)

const StateFile = "state.txt"

// BuildURL joins segments with single slashes.
func BuildURL(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for i, s := range segments {
		if i > 0 {
			s = strings.TrimLeft(s, "/")
		}
		if i < len(segments)-1 {
			s = strings.TrimRight(s, "/")
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// FormatSequenceNumber converts a sequence number to the replication
// directory layout, e.g. 5 -> "000/000/005" and 6123456 -> "006/123/456".
func FormatSequenceNumber(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequenceNumber, n)
	}
	digits := fmt.Sprintf("%09d", n)
	cut := len(digits) - 6
	return digits[:cut] + "/" + digits[cut:cut+3] + "/" + digits[cut+3:], nil
}
