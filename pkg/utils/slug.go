package utils

import (
	"strings"

	"github.com/google/uuid"
)

const maxSlugStem = 48

// MakeSlug builds a URL-safe slug from a title, suffixed with the id so it
// stays unique for the owner.
func MakeSlug(title string, id uuid.UUID) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	stem := strings.Trim(b.String(), "-")
	if len(stem) > maxSlugStem {
		stem = strings.TrimRight(stem[:maxSlugStem], "-")
	}
	if stem == "" {
		stem = "thread"
	}
	return stem + "-" + id.String()
}
