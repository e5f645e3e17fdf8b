// Package sizefmt renders byte counts the way the UI expects them:
// one decimal place, binary (1024) steps, capped at GB.
package sizefmt

import "fmt"

var units = []string{"B", "KB", "MB", "GB"}

// Format renders a byte count as a human-readable string.
// Zero is special-cased as "0 B"; everything else carries one decimal,
// e.g. "1023.0 B", "1.5 KB", "3.2 MB". Sizes beyond GB stay in GB.
func Format(size int64) string {
	if size == 0 {
		return "0 B"
	}

	value := float64(size)
	for i, unit := range units {
		if value < 1024 || i == len(units)-1 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}

	// Unreachable: the loop always returns on the last unit.
	return fmt.Sprintf("%.1f GB", value)
}
