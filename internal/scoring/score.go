// Package scoring compares answer sheets against the key and orders the
// results for display and export.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/pavelanni/corretor/internal/model"
)

// Result is the outcome of scoring one answer sheet.
type Result struct {
	Correct    int
	Percentage int
	Tags       []model.Tag
}

// Score compares answers to key question by question. The comparison ignores
// case; the percentage is rounded half away from zero and is 0 for an empty key.
func Score(answers, key []string) Result {
	tags := make([]model.Tag, len(key))
	correct := 0
	for i, k := range key {
		var a string
		if i < len(answers) {
			a = answers[i]
		}
		tags[i] = Tag(a, k)
		if tags[i] == model.TagCorrect {
			correct++
		}
	}
	return Result{
		Correct:    correct,
		Percentage: Percentage(correct, len(key)),
		Tags:       tags,
	}
}

// Tag classifies one answer against its key slot. Only an empty answer or key
// slot is neutral; the unanswered marker counts as a wrong answer.
func Tag(answer, key string) model.Tag {
	if answer == "" || key == "" {
		return model.TagNeutral
	}
	if strings.EqualFold(answer, key) {
		return model.TagCorrect
	}
	return model.TagIncorrect
}

// Percentage returns round(correct/total*100), or 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// FormatPercentage renders a percentage the way every output shows it.
func FormatPercentage(p int) string {
	return strconv.Itoa(p) + "%"
}
