package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Name  string `form:"name" validate:"required,max=5"`
	Email string `form:"email_address" validate:"omitempty,email"`
	Note  string `validate:"max=3"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name  string
		input sampleForm
		want  *FieldError
	}{
		{name: "Valid", input: sampleForm{Name: "bob"}, want: nil},
		{name: "Missing required", input: sampleForm{}, want: &FieldError{Field: "name", Tag: "required"}},
		{name: "Too long", input: sampleForm{Name: strings.Repeat("x", 6)}, want: &FieldError{Field: "name", Tag: "max", Param: "5"}},
		{name: "Form tag names field", input: sampleForm{Name: "bob", Email: "nope"}, want: &FieldError{Field: "email_address", Tag: "email"}},
		{name: "Falls back to lower-cased name", input: sampleForm{Name: "bob", Note: "long"}, want: &FieldError{Field: "note", Tag: "max", Param: "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateStruct(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestValidateStruct_MaxCountsRunes(t *testing.T) {
	assert.Nil(t, ValidateStruct(sampleForm{Name: "héllo"}))
}
