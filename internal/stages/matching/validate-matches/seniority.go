// internal/stages/matching/validate-matches/seniority.go
package validatematches

import (
	"strings"
	"unicode"
)

var titleLevels = map[string]int{
	"intern":     0,
	"trainee":    0,
	"junior":     1,
	"jr":         1,
	"associate":  1,
	"engineer":   2,
	"developer":  2,
	"analyst":    2,
	"designer":   2,
	"scientist":  2,
	"specialist": 2,
	"consultant": 2,
	"accountant": 2,
	"senior":     3,
	"sr":         3,
	"lead":       4,
	"manager":    4,
	"staff":      4,
	"principal":  5,
	"architect":  5,
	"head":       6,
	"director":   6,
	"vp":         7,
	"svp":        7,
	"evp":        8,
	"chief":      9,
	"ceo":        9,
	"cto":        9,
	"cfo":        9,
	"coo":        9,
}

// titleLevel ranks a job title by its most senior keyword. ok is false for
// empty titles and titles with no known keyword.
func titleLevel(title string) (level int, ok bool) {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "vice president") {
		return titleLevels["vp"], true
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	level = -1
	for _, w := range words {
		if l, known := titleLevels[w]; known && l > level {
			level = l
		}
	}
	return level, level >= 0
}

// outranks reports whether the mentor title is more senior than the mentee
// title. checked is false when either title cannot be ranked.
func outranks(mentorTitle, menteeTitle string) (senior, checked bool) {
	m, ok := titleLevel(mentorTitle)
	if !ok {
		return false, false
	}
	e, ok := titleLevel(menteeTitle)
	if !ok {
		return false, false
	}
	return m > e, true
}
