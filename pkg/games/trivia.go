package games

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Round timings for trivia.
const (
	TriviaGameTime    = 120 * time.Second
	TriviaFactTime    = 30 * time.Second
	TriviaCurtainTime = 5 * time.Second
	TriviaAnswerTime  = 30 * time.Second
)

type Puzzle struct {
	Masked string
	Answer string
}

// Blank hides one word of fact behind underscores, one per letter of the
// word. Only words holding at least one letter are picked. Single-word facts
// and facts without such a word are returned unchanged with an empty answer.
func Blank(fact string, rnd *rand.Rand) Puzzle {
	words := strings.Split(fact, " ")
	if len(words) <= 1 {
		return Puzzle{Masked: fact}
	}
	var candidates []int
	for i, w := range words {
		if lettersOnly(w) != "" {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return Puzzle{Masked: fact}
	}
	i := candidates[rnd.Intn(len(candidates))]
	answer := lettersOnly(words[i])
	words[i] = strings.Repeat("_", len([]rune(answer)))
	return Puzzle{Masked: strings.Join(words, " "), Answer: answer}
}

// CheckAnswer compares case-insensitively. Answers of the wrong length are
// rejected outright.
func (p Puzzle) CheckAnswer(answer string) bool {
	if len([]rune(answer)) != len([]rune(p.Answer)) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), p.Answer)
}

// Restore puts the answer back into the masked text.
func (p Puzzle) Restore() string {
	if p.Answer == "" {
		return p.Masked
	}
	return strings.Replace(p.Masked, strings.Repeat("_", len([]rune(p.Answer))), p.Answer, 1)
}

func lettersOnly(word string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return r
		}
		return -1
	}, word)
}
