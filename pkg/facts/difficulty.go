package facts

import "strings"

type WordRange struct {
	Min int
	Max int // 0 means unbounded
}

func (r WordRange) Contains(words int) bool {
	if words < r.Min {
		return false
	}
	return r.Max == 0 || words <= r.Max
}

var difficultyRanges = map[string]WordRange{
	"easy":   {Min: 1, Max: 12},
	"medium": {Min: 13, Max: 20},
	"hard":   {Min: 21},
}

// DifficultyWords maps a difficulty label to its word-count range. Unknown
// labels report false and mean no filtering.
func DifficultyWords(label string) (WordRange, bool) {
	r, ok := difficultyRanges[strings.ToLower(strings.TrimSpace(label))]
	return r, ok
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}
