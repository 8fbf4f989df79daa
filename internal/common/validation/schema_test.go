package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["mentor", "mentee"],
    "properties": {
      "mentor": {"type": "string"},
      "mentee": {"type": "string"}
    }
  }
}`

func validate(t *testing.T, document interface{}) *ValidationResult {
	t.Helper()
	s, err := CompileSchema(pairSchema)
	require.NoError(t, err)
	result, err := s.ValidateValue(document)
	require.NoError(t, err)
	return result
}

func pair(fields ...string) map[string]interface{} {
	doc := map[string]interface{}{}
	for i := 0; i+1 < len(fields); i += 2 {
		doc[fields[i]] = fields[i+1]
	}
	return doc
}

func TestSchema_Valid(t *testing.T) {
	result := validate(t, []interface{}{pair("mentor", "a@x.com", "mentee", "b@x.com")})
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestSchema_MissingField(t *testing.T) {
	result := validate(t, []interface{}{pair("mentor", "a@x.com")})
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.GetErrorMessages()[0], "mentee")
}

func TestSchema_WrongShape(t *testing.T) {
	assert.False(t, validate(t, pair("mentor", "a@x.com")).Valid)
	assert.False(t, validate(t, []interface{}{1.0, 2.0}).Valid)
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`not json`)
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ada.lovelace@example.com"))
	assert.True(t, ValidateEmail(" o'brien@example.co.uk "))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail(""))
}
