package dashboard

import (
	"net/http"
	"net/url"

	renderers "github.com/goliatone/go-accounts/pkg/renderers/dashboard"
)

// Flash levels mirror the message classes the page chrome styles.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "error"
)

const (
	flashParam      = "flash"
	flashLevelParam = "flash_level"
)

// redirectWithFlash sends a see-other redirect carrying a one-shot status
// message in the query string. Sessions are out of scope for the component,
// so the message rides the redirect itself.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, level, message string) {
	u, err := url.Parse(target)
	if err != nil {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	q := u.Query()
	q.Set(flashParam, message)
	q.Set(flashLevelParam, level)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// popFlash reads the status message from the request, if any.
func popFlash(r *http.Request) []renderers.Message {
	message := r.URL.Query().Get(flashParam)
	if message == "" {
		return nil
	}
	level := r.URL.Query().Get(flashLevelParam)
	if level == "" {
		level = FlashSuccess
	}
	return []renderers.Message{{Level: level, Text: message}}
}
