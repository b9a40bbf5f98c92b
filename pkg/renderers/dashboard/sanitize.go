package dashboard

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	helpPolicyOnce sync.Once
	helpPolicy     *bluemonday.Policy
)

// sanitizeHelpText strips everything but a small inline vocabulary from field
// help text. Builders occasionally embed emphasis or links in the hint copy
// and the overlay files are deployment-edited, so the markup cannot be
// trusted as-is.
func sanitizeHelpText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(helpSanitizer().Sanitize(trimmed))
}

func helpSanitizer() *bluemonday.Policy {
	helpPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("em", "strong", "code", "br")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowStandardURLs()
		helpPolicy = policy
	})
	return helpPolicy
}
