// internal/stages/matching/parse-matches/handler.go
package parsematches

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "mentor-matcher/internal/common/errors"
	"mentor-matcher/internal/common/logger"
	"mentor-matcher/internal/common/validation"
	"mentor-matcher/internal/models"
)

const (
	TaskType = "parse-matches"
)

var (
	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
	scorePattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)
)

type Handler struct {
	schema *validation.Schema
	logger logger.Logger
}

func NewHandler(log logger.Logger) *Handler {
	schema, err := validation.CompileSchema(matchSchema)
	if err != nil {
		panic(fmt.Sprintf("match schema: %v", err))
	}
	return &Handler{
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute turns the completion text into a match set. Column order follows
// the order keys first appear across the records.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	text := extractJSON(input.Raw)
	if text == "" || !gjson.Valid(text) {
		return nil, apperrors.NewMatchParseError("completion is not valid JSON", nil)
	}

	records, err := unwrap(gjson.Parse(text))
	if err != nil {
		return nil, apperrors.NewMatchParseError(err.Error(), nil)
	}

	// Keys are canonicalized first so "Mentor" satisfies the required "mentor".
	result, err := h.schema.ValidateValue(canonicalRecords(records))
	if err != nil {
		return nil, apperrors.NewMatchParseError("schema validation failed", err)
	}
	if !result.Valid {
		return nil, apperrors.NewMatchParseError(
			"completion does not match the expected shape: "+strings.Join(result.GetErrorMessages(), "; "), nil)
	}

	out := &Output{Matches: &models.MatchSet{}}
	seen := map[string]bool{}

	records.ForEach(func(_, item gjson.Result) bool {
		rec := models.MatchRecord{}
		item.ForEach(func(key, value gjson.Result) bool {
			col := canonicalColumn(key.String())
			if !seen[col] {
				seen[col] = true
				out.Matches.Columns = append(out.Matches.Columns, col)
			}
			if w := assign(&rec, col, value); w != "" {
				out.Warnings = append(out.Warnings, w)
			}
			return true
		})
		out.Matches.Records = append(out.Matches.Records, rec)
		return true
	})

	matched, unmatched := out.Matches.Counts()
	h.logger.Info("matches parsed", map[string]interface{}{
		"records":   len(out.Matches.Records),
		"matched":   matched,
		"unmatched": unmatched,
		"columns":   out.Matches.Columns,
	})
	for _, w := range out.Warnings {
		h.logger.Warn("match value coerced", map[string]interface{}{"detail": w})
	}
	return out, nil
}

// extractJSON strips markdown fences and any prose around the JSON payload.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(text, "[") || strings.HasPrefix(text, "{") {
		if gjson.Valid(text) {
			return text
		}
	}
	if candidate := embeddedArray(text); candidate != "" {
		return candidate
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start && gjson.Valid(text[start:end+1]) {
		return text[start : end+1]
	}
	return text
}

// embeddedArray returns the first bracketed span that is a JSON array of
// objects. Bracketed prose such as "[draft]" or "[2]" is skipped.
func embeddedArray(text string) string {
	for start := 0; start < len(text); start++ {
		if text[start] != '[' {
			continue
		}
		for end := len(text) - 1; end > start; end-- {
			if text[end] != ']' {
				continue
			}
			candidate := text[start : end+1]
			if gjson.Valid(candidate) && objectsOnly(gjson.Parse(candidate)) {
				return candidate
			}
		}
	}
	return ""
}

func objectsOnly(arr gjson.Result) bool {
	ok := true
	arr.ForEach(func(_, item gjson.Result) bool {
		ok = item.IsObject()
		return ok
	})
	return ok
}

// unwrap accepts an array, a single match object, or an object whose only
// array member holds the matches (e.g. {"matches": [...]}).
func unwrap(doc gjson.Result) (gjson.Result, error) {
	if doc.IsArray() {
		return doc, nil
	}
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("completion is a JSON %s, not an array of matches", doc.Type)
	}
	if hasPairKey(doc) {
		return gjson.Parse("[" + doc.Raw + "]"), nil
	}

	var arrays []gjson.Result
	doc.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			arrays = append(arrays, value)
		}
		return true
	})
	if len(arrays) == 1 {
		return arrays[0], nil
	}
	return gjson.Result{}, fmt.Errorf("completion is an object without a single match array")
}

func hasPairKey(doc gjson.Result) bool {
	found := false
	doc.ForEach(func(key, _ gjson.Result) bool {
		col := canonicalColumn(key.String())
		found = col == models.ColMentor || col == models.ColMentee
		return !found
	})
	return found
}

// canonicalRecords decodes the records with known columns under their
// canonical names; other keys and non-object items pass through as-is.
func canonicalRecords(records gjson.Result) []interface{} {
	docs := []interface{}{}
	records.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			docs = append(docs, item.Value())
			return true
		}
		doc := map[string]interface{}{}
		item.ForEach(func(key, value gjson.Result) bool {
			doc[canonicalColumn(key.String())] = value.Value()
			return true
		})
		docs = append(docs, doc)
		return true
	})
	return docs
}

// canonicalColumn maps "Alignment Score" and similar spellings onto the known columns.
func canonicalColumn(key string) string {
	norm := strings.ToLower(strings.TrimSpace(key))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case models.ColMentor, models.ColMentee, models.ColReasonFor, models.ColReasonAgainst,
		models.ColAlignmentScore, models.ColOverCapacity:
		return norm
	}
	return key
}

func assign(rec *models.MatchRecord, col string, value gjson.Result) string {
	switch col {
	case models.ColMentor:
		rec.Mentor = strings.TrimSpace(value.String())
		if strings.EqualFold(rec.Mentor, models.NoMatchSentinel) {
			rec.Mentor = models.NoMatchSentinel
		}
	case models.ColMentee:
		rec.Mentee = strings.TrimSpace(value.String())
	case models.ColReasonFor:
		rec.ReasonFor = value.String()
	case models.ColReasonAgainst:
		rec.ReasonAgainst = value.String()
	case models.ColAlignmentScore:
		return assignScore(rec, value)
	case models.ColOverCapacity:
		flag, ok := parseFlag(value)
		rec.OverCapacity = flag
		if !ok {
			return fmt.Sprintf("over_capacity %q for mentee %s read as false", value.String(), rec.Mentee)
		}
	default:
		if rec.Extras == nil {
			rec.Extras = make(map[string]interface{})
		}
		rec.Extras[col] = value.Value()
	}
	return ""
}

func assignScore(rec *models.MatchRecord, value gjson.Result) string {
	switch value.Type {
	case gjson.Number:
		score := value.Float()
		rec.AlignmentScore = &score
	case gjson.Null:
		rec.AlignmentScore = nil
	default:
		if score, ok := parseScore(value.String()); ok {
			rec.AlignmentScore = &score
			return ""
		}
		rec.RawScore = value.String()
		return fmt.Sprintf("alignment_score %q is not numeric", value.String())
	}
	return ""
}

// parseScore reads "8", "8/10" and "8.5 out of 10".
func parseScore(s string) (float64, bool) {
	m := scorePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	return f, err == nil
}

func parseFlag(value gjson.Result) (bool, bool) {
	switch value.Type {
	case gjson.True:
		return true, true
	case gjson.False, gjson.Null:
		return false, true
	}
	switch strings.ToLower(strings.TrimSpace(value.String())) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0", "":
		return false, true
	}
	return false, false
}
