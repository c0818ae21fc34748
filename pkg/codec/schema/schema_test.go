package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSchema = `{
  "type": "object",
  "required": ["e"],
  "properties": {"e": {"type": "array", "items": {"type": "integer"}}}
}`

func TestValidate(t *testing.T) {
	v := New("test.json", []byte(testSchema))

	assert.NoError(t, v.Validate([]byte(`{"e":[1,2]}`)))
	assert.Error(t, v.Validate([]byte(`{}`)))
	assert.Error(t, v.Validate([]byte(`{"e":["x"]}`)))
	assert.Error(t, v.Validate([]byte(`{"e":`)))
}

func TestInvalidSchema(t *testing.T) {
	v := New("broken.json", []byte(`{"type":`))
	assert.Error(t, v.Validate([]byte(`{}`)))
	// The compile error is kept.
	assert.Error(t, v.Validate([]byte(`{}`)))
}
