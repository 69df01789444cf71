package export

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pavelanni/corretor/internal/exam"
	"github.com/pavelanni/corretor/internal/model"
)

type markers struct {
	subject, grade, key, students int
}

func findMarkers(rows [][]string) (markers, error) {
	m := markers{subject: -1, grade: -1, key: -1, students: -1}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		var slot *int
		switch strings.TrimSpace(row[0]) {
		case labelSubject:
			slot = &m.subject
		case labelGrade:
			slot = &m.grade
		case labelKey:
			slot = &m.key
		case labelStudents:
			slot = &m.students
		default:
			continue
		}
		if *slot < 0 {
			*slot = i
		}
	}

	var missing []string
	for _, c := range []struct {
		idx   int
		label string
	}{
		{m.subject, labelSubject},
		{m.grade, labelGrade},
		{m.key, labelKey},
		{m.students, labelStudents},
	} {
		if c.idx < 0 {
			missing = append(missing, c.label)
		}
	}
	if len(missing) > 0 {
		return m, &ImportFormatError{Missing: missing}
	}
	return m, nil
}

// parseRows turns an exported grid back into a snapshot. When
// padKeyFromHeader is set the key is extended to the number of question
// columns in the header row, for sources that drop trailing empty cells.
func parseRows(rows [][]string, padKeyFromHeader bool) (model.Snapshot, error) {
	m, err := findMarkers(rows)
	if err != nil {
		return model.Snapshot{}, err
	}

	key := trimAll(rows[m.key][1:])
	if padKeyFromHeader {
		if n := headerQuestions(rows[m.students]); n > len(key) {
			key = padTo(key, n)
		}
	}
	if len(key) == 0 {
		return model.Snapshot{}, &ImportFormatError{Row: m.key + 1, Reason: "answer key is empty"}
	}
	for i, v := range key {
		if v == "" {
			continue
		}
		if err := exam.ValidateKeyLetter(v); err != nil {
			return model.Snapshot{}, &ImportFormatError{
				Row:    m.key + 1,
				Reason: "question " + strconv.Itoa(i+1) + ": invalid key letter " + strconv.Quote(v),
			}
		}
	}

	roster := []model.Student{}
	for i := m.students + 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= 1 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		answers := padTo(trimAll(row[1:min(len(row), len(key)+1)]), len(key))
		for q, a := range answers {
			if err := exam.ValidateAnswer(a); err != nil {
				return model.Snapshot{}, &ImportFormatError{
					Row:    i + 1,
					Reason: name + ": question " + strconv.Itoa(q+1) + ": invalid answer " + strconv.Quote(a),
				}
			}
		}
		roster = append(roster, model.Student{Name: name, Answers: answers})
	}

	snap := model.Snapshot{
		QuestionCount: len(key),
		Key:           key,
		Roster:        roster,
		Subject:       cell(rows[m.subject], 1),
		Grade:         cell(rows[m.grade], 1),
	}
	if err := exam.ValidateSnapshot(snap); err != nil {
		var verr *exam.ValidationError
		if errors.As(err, &verr) {
			return model.Snapshot{}, &ImportFormatError{Reason: verr.Error()}
		}
		return model.Snapshot{}, &ImportFormatError{Reason: err.Error()}
	}
	return snap, nil
}

// headerQuestions counts the numbered question columns of the header row.
func headerQuestions(row []string) int {
	n := 0
	for _, c := range row[1:] {
		if _, err := strconv.Atoi(strings.TrimSpace(c)); err != nil {
			break
		}
		n++
	}
	return n
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func padTo(in []string, n int) []string {
	for len(in) < n {
		in = append(in, "")
	}
	return in
}
