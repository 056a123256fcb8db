package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestBuildSystemPrompt(t *testing.T) {
	base := "Your name is Mistral Thing. The website you are on is https://mistral-thing.xyz You are a helpful assistant that can help with tasks."

	tests := []struct {
		name     string
		fields   Fields
		expected string
	}{
		{
			name:     "no preferences",
			fields:   Fields{},
			expected: base,
		},
		{
			name:     "blank preferences are ignored",
			fields:   Fields{Nickname: strPtr("  "), Biography: strPtr(""), Instructions: nil},
			expected: base,
		},
		{
			name:     "nickname only",
			fields:   Fields{Nickname: strPtr("Sam")},
			expected: base + "\nThe user prefers to be called Sam.",
		},
		{
			name: "everything",
			fields: Fields{
				Nickname:     strPtr("Sam"),
				Biography:    strPtr("a backend developer"),
				Instructions: strPtr("Answer in French."),
			},
			expected: base + "\nThe user prefers to be called Sam.\nThe user's biography is a backend developer.\n\nAnswer in French.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fields.AssistantName = "Mistral Thing"
			tt.fields.SiteURL = "https://mistral-thing.xyz"
			assert.Equal(t, tt.expected, BuildSystemPrompt(tt.fields))
		})
	}
}
