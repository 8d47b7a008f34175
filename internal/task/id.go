package task

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// PrefixTask and PrefixGoal namespace generated IDs.
	PrefixTask = "task"
	PrefixGoal = "goal"

	shortIDLength = 8
	maxAttempts   = 16
)

// IDFunc produces a new unique ID for the given prefix.
// existsFn reports whether a candidate is already taken.
type IDFunc func(prefix string, existsFn func(string) bool) string

// GenerateID creates an ID of the form "<prefix>_<8 hex chars>" from a random UUID.
// On collision it retries, falling back to the full 32 hex chars.
func GenerateID(prefix string, existsFn func(string) bool) string {
	var hex string
	for range maxAttempts {
		hex = strings.ReplaceAll(uuid.NewString(), "-", "")
		candidate := prefix + "_" + hex[:shortIDLength]
		if !existsFn(candidate) {
			return candidate
		}
	}
	return prefix + "_" + hex
}
