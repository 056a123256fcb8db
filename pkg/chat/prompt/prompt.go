// Package prompt builds the system message that opens every thread.
package prompt

import (
	"fmt"
	"strings"
)

// Fields carries the optional user preferences that shape the prompt.
// Blank values are treated as absent.
type Fields struct {
	AssistantName string
	SiteURL       string
	Nickname      *string
	Biography     *string
	Instructions  *string
}

func present(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	v := strings.TrimSpace(*s)
	return v, v != ""
}

// BuildSystemPrompt is pure: same fields, same prompt.
func BuildSystemPrompt(f Fields) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your name is %s.", f.AssistantName)
	if f.SiteURL != "" {
		fmt.Fprintf(&b, " The website you are on is %s", f.SiteURL)
	}
	b.WriteString(" You are a helpful assistant that can help with tasks.")

	if nickname, ok := present(f.Nickname); ok {
		fmt.Fprintf(&b, "\nThe user prefers to be called %s.", nickname)
	}
	if bio, ok := present(f.Biography); ok {
		fmt.Fprintf(&b, "\nThe user's biography is %s.", bio)
	}
	if instructions, ok := present(f.Instructions); ok {
		b.WriteString("\n\n")
		b.WriteString(instructions)
	}

	return b.String()
}

// TitlePrompt instructs the model to summarise the opening message.
const TitlePrompt = `- you will generate a short title based on the first message a user begins a conversation with
- ensure it is not more than 80 characters long
- the title should be a summary of the user's message
- do not use quotes or colons
- this is the user's first message, so it should be a summary of the user's message`
