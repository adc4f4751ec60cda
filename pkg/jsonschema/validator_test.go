package jsonschema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": { "type": "string" },
		"age": { "type": "integer", "minimum": 0 }
	},
	"required": ["name"]
}`

func TestCompile(t *testing.T) {
	_, err := Compile("person.json", personSchema)
	require.NoError(t, err)

	_, err = Compile("broken.json", `{"type": `)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema")

	_, err = Compile("bad-type.json", `{"type": 12}`)
	assert.Error(t, err)
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("broken.json", `{`) })
	assert.NotPanics(t, func() { MustCompile("person.json", personSchema) })
}

func TestSchema_ValidateBytes(t *testing.T) {
	schema := MustCompile("person.json", personSchema)

	tests := []struct {
		name      string
		json      string
		wantValid bool
		wantMsgs  []string
	}{
		{
			name:      "valid object",
			json:      `{"name": "John Doe", "age": 30}`,
			wantValid: true,
		},
		{
			name:     "missing required property",
			json:     `{"age": 30}`,
			wantMsgs: []string{"name"},
		},
		{
			name:     "wrong type",
			json:     `{"name": "John", "age": "thirty"}`,
			wantMsgs: []string{"/age"},
		},
		{
			name:     "several violations",
			json:     `{"age": -1}`,
			wantMsgs: []string{"name", "/age"},
		},
		{
			name:     "invalid JSON",
			json:     `{"name": `,
			wantMsgs: []string{"invalid JSON"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateBytes([]byte(tt.json))
			if tt.wantValid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.NotEmpty(t, verrs)
			for _, msg := range tt.wantMsgs {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "", ValidationErrors{}.Error())

	errs := ValidationErrors{errors.New("first"), errors.New("second")}
	assert.Equal(t, "first; second", errs.Error())
	assert.Equal(t, 1, strings.Count(errs.Error(), ";"))
}
