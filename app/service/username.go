package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var usernameInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)

// deriveUsername builds a URL-safe username from the token name when the
// caller did not pick one. A short random suffix keeps derived names from
// colliding for popular token names.
func deriveUsername(tokenName string) string {
	base := strings.ToLower(strings.TrimSpace(tokenName))
	base = strings.ReplaceAll(base, " ", "-")
	base = usernameInvalidChars.ReplaceAllString(base, "")
	base = strings.Trim(base, "-")
	if len(base) > 20 {
		base = base[:20]
		base = strings.Trim(base, "-")
	}
	if base == "" {
		base = "token"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%s", base, suffix)
}

// resolveUsername returns the requested username untouched, or derives one
// when the request left it empty.
func resolveUsername(requested, tokenName string) (string, bool) {
	if requested != "" {
		return requested, false
	}
	return deriveUsername(tokenName), true
}
