package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseHumanDuration extends time.ParseDuration with a "d" (day) suffix,
// the human duration format spec.md §6 requires for --every/--stop-timeout.
func parseHumanDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(days * 24 * float64(time.Hour)), nil
	}
	return time.ParseDuration(s)
}
