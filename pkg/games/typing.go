package games

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TimeLimit is how long a speed typing round lasts at the given difficulty.
func TimeLimit(difficulty string) time.Duration {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "easy":
		return 45 * time.Second
	case "medium":
		return 30 * time.Second
	case "hard":
		return 20 * time.Second
	default:
		return 30 * time.Second
	}
}

// Progress returns how far typed gets through target, in whole percent. ok is
// false when typed is not a prefix of target; the caller keeps the last value.
func Progress(target, typed string) (percent int, ok bool) {
	if !strings.HasPrefix(target, typed) {
		return 0, false
	}
	total := utf8.RuneCountInString(target)
	if total == 0 {
		return 100, true
	}
	return utf8.RuneCountInString(typed) * 100 / total, true
}

// Finished reports whether typed reproduces target exactly.
func Finished(target, typed string) bool {
	p, ok := Progress(target, typed)
	return ok && p == 100
}
