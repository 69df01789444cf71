package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/pavelanni/corretor/internal/model"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		answers    []string
		key        []string
		percentage int
		correct    int
		tags       []model.Tag
	}{
		{
			name:       "empty key",
			answers:    []string{},
			key:        []string{},
			percentage: 0,
			tags:       []model.Tag{},
		},
		{
			name:       "case-insensitive match",
			answers:    []string{"a"},
			key:        []string{"A"},
			percentage: 100,
			correct:    1,
			tags:       []model.Tag{model.TagCorrect},
		},
		{
			name:       "two of three rounds up",
			answers:    []string{"A", "C", "C"},
			key:        []string{"A", "B", "C"},
			percentage: 67,
			correct:    2,
			tags:       []model.Tag{model.TagCorrect, model.TagIncorrect, model.TagCorrect},
		},
		{
			name:       "blank key slot is neutral and still counts in the total",
			answers:    []string{"A", "B"},
			key:        []string{"A", ""},
			percentage: 50,
			correct:    1,
			tags:       []model.Tag{model.TagCorrect, model.TagNeutral},
		},
		{
			name:       "empty answer is neutral, unanswered marker is wrong",
			answers:    []string{"", "-", "E"},
			key:        []string{"A", "B", "C"},
			percentage: 0,
			tags:       []model.Tag{model.TagNeutral, model.TagIncorrect, model.TagIncorrect},
		},
		{
			name:       "unanswered marker against a blank key slot is neutral",
			answers:    []string{"-", "A"},
			key:        []string{"", "A"},
			percentage: 50,
			correct:    1,
			tags:       []model.Tag{model.TagNeutral, model.TagCorrect},
		},
		{
			name:       "short answer vector",
			answers:    []string{"B"},
			key:        []string{"B", "B"},
			percentage: 50,
			correct:    1,
			tags:       []model.Tag{model.TagCorrect, model.TagNeutral},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.answers, tt.key)
			assert.Equal(t, tt.percentage, got.Percentage)
			assert.Equal(t, tt.correct, got.Correct)
			assert.Equal(t, tt.tags, got.Tags)
		})
	}
}

func TestScoreDoesNotMutate(t *testing.T) {
	answers := []string{"a", "-"}
	key := []string{"A", "B"}
	Score(answers, key)
	assert.Equal(t, []string{"a", "-"}, answers)
	assert.Equal(t, []string{"A", "B"}, key)
}

func TestPercentageRange(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for correct := 0; correct <= total; correct++ {
			p := Percentage(correct, total)
			require.GreaterOrEqual(t, p, 0)
			require.LessOrEqual(t, p, 100)
		}
	}
	// 1/8 = 12.5 rounds away from zero.
	assert.Equal(t, 13, Percentage(1, 8))
	assert.Equal(t, 38, Percentage(3, 8))
	assert.Equal(t, "67%", FormatPercentage(Percentage(2, 3)))
}

func TestOrderIsLocaleAwareAndStable(t *testing.T) {
	roster := []model.Student{
		{Name: "Bruno", Answers: []string{"1"}},
		{Name: "Álvaro"},
		{Name: "Ana", Answers: []string{"first"}},
		{Name: "Carla"},
		{Name: "Ana", Answers: []string{"second"}},
		{Name: "Élio"},
		{Name: "Eduardo"},
	}

	order := Order(roster, language.BrazilianPortuguese)
	assert.Equal(t, []int{1, 2, 4, 0, 3, 6, 5}, order)

	projected := Project(roster, language.BrazilianPortuguese)
	require.Len(t, projected, len(roster))
	assert.Equal(t, "first", projected[1].Answers[0])
	assert.Equal(t, "second", projected[2].Answers[0])
	assert.Equal(t, "Bruno", roster[0].Name, "projection must not reorder the roster")

	projected[3].Answers[0] = "changed"
	assert.Equal(t, "1", roster[0].Answers[0], "projection must copy students")
}

func TestResultsExample(t *testing.T) {
	key := []string{"A", "B", "C"}
	roster := []model.Student{
		{Name: "Bruno", Answers: []string{"A", "B", "D"}},
		{Name: "Ana", Answers: []string{"A", "C", "C"}},
	}

	rows := Results(key, roster, DefaultLanguage)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ana", rows[0].Name)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, 67, rows[0].Percentage)
	assert.Equal(t, "Bruno", rows[1].Name)
	assert.Equal(t, 0, rows[1].Position)
	assert.Equal(t, 67, rows[1].Percentage)
	assert.Equal(t, []model.Tag{model.TagCorrect, model.TagCorrect, model.TagIncorrect}, rows[1].Tags)
}

func TestViewTitle(t *testing.T) {
	snap := model.Snapshot{QuestionCount: 1, Key: []string{"A"}, Subject: "Física", Grade: "2º Ano"}
	assert.Equal(t, "Física - 2º Ano", View(snap, DefaultLanguage).Title())

	snap.Grade = " "
	assert.Equal(t, model.FallbackTitle, View(snap, DefaultLanguage).Title())
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, "en", ParseLanguage("en").String())
	assert.Equal(t, DefaultLanguage, ParseLanguage("not a tag!"))
}
