// internal/stages/matching/parse-matches/schema.go
package parsematches

// matchSchema describes the array the rubric asks the model to return.
// Scores and flags are loose because models often quote them.
const matchSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["mentor", "mentee"],
    "properties": {
      "mentor": {"type": "string"},
      "mentee": {"type": "string"},
      "reason_for": {"type": ["string", "null"]},
      "reason_against": {"type": ["string", "null"]},
      "alignment_score": {"type": ["number", "string", "null"]},
      "over_capacity": {"type": ["boolean", "string", "null"]}
    }
  }
}`
