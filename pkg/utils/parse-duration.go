package utils

import (
	"fmt"
	"time"
)

// ParseDurationString parses duration values like "30s" or "12h" as they
// appear in config files and environment variables.
func ParseDurationString(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time duration '%s': %w", value, err)
	}
	return d, nil
}
