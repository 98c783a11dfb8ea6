package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Slug  string `json:"slug" validate:"required,slug"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&samplePayload{Email: "not-an-email", Slug: "ok-slug"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 1)
	require.Equal(t, "email", failures[0].Field)
	require.Equal(t, "email", failures[0].Tag)
}

func TestSlugRule(t *testing.T) {
	valid := []string{"terminal-portfolio", "blog2", "a"}
	for _, slug := range valid {
		require.NoError(t, ValidateStruct(&samplePayload{Email: "a@b.co", Slug: slug}), slug)
	}

	invalid := []string{"", "Upper", "sp ace", "-leading", "trailing-", "under_score"}
	for _, slug := range invalid {
		require.Error(t, ValidateStruct(&samplePayload{Email: "a@b.co", Slug: slug}), slug)
	}
}
