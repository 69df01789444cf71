package scoring

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/pavelanni/corretor/internal/model"
)

// DefaultLanguage is the collation locale used when none is configured.
var DefaultLanguage = language.BrazilianPortuguese

// ParseLanguage returns the tag for s, falling back to DefaultLanguage.
func ParseLanguage(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return DefaultLanguage
	}
	return tag
}

// Order returns roster indexes sorted by name with a locale-aware, stable,
// ascending comparison. Students with equal names keep their roster order.
func Order(roster []model.Student, lang language.Tag) []int {
	idx := make([]int, len(roster))
	for i := range idx {
		idx[i] = i
	}
	c := collate.New(lang)
	sort.SliceStable(idx, func(a, b int) bool {
		return c.CompareString(roster[idx[a]].Name, roster[idx[b]].Name) < 0
	})
	return idx
}

// Project returns a sorted copy of the roster. The roster itself is not modified.
func Project(roster []model.Student, lang language.Tag) []model.Student {
	out := make([]model.Student, 0, len(roster))
	for _, i := range Order(roster, lang) {
		out = append(out, roster[i].Clone())
	}
	return out
}

// Results scores every student and returns them in projected order. The
// results page and every exporter render from this slice, so they all show
// the same rows in the same order.
func Results(key []string, roster []model.Student, lang language.Tag) []model.ScoredStudent {
	out := make([]model.ScoredStudent, 0, len(roster))
	for _, i := range Order(roster, lang) {
		st := roster[i].Clone()
		r := Score(st.Answers, key)
		out = append(out, model.ScoredStudent{
			Student:    st,
			Position:   i,
			Correct:    r.Correct,
			Percentage: r.Percentage,
			Tags:       r.Tags,
		})
	}
	return out
}

// View bundles a snapshot's labels and key with its scored results.
func View(snap model.Snapshot, lang language.Tag) model.ResultsView {
	return model.ResultsView{
		Metadata: snap.Metadata(),
		Key:      snap.Key,
		Rows:     Results(snap.Key, snap.Roster, lang),
	}
}
