package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	runPrefix     = "PRO"
	runTimeLayout = "20060102150405"
	suffixLen     = 4
)

// FormatRunID returns a run ID like "PRO-20250103120000-1A2B".
func FormatRunID(at time.Time, suffix string) string {
	return fmt.Sprintf("%s-%s-%s", runPrefix, at.Format(runTimeLayout), strings.ToUpper(suffix))
}

// NewRunID returns a run ID stamped with at and a random suffix.
func NewRunID(at time.Time) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return FormatRunID(at, s[:suffixLen])
}

// ParseRunID parses "PRO-20250103120000-1A2B" into its timestamp and suffix.
func ParseRunID(id string) (at time.Time, suffix string, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 || parts[0] != runPrefix {
		return time.Time{}, "", fmt.Errorf("invalid run ID format: %q", id)
	}

	at, err = time.Parse(runTimeLayout, parts[1])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid timestamp in run ID %q: %w", id, err)
	}

	suffix = parts[2]
	if len(suffix) != suffixLen || strings.ToUpper(suffix) != suffix {
		return time.Time{}, "", fmt.Errorf("invalid suffix in run ID %q", id)
	}
	return at, suffix, nil
}
