// Package nav provides the breadcrumb type and the symbolic route table used
// by the dashboard views. Routes are referenced by name so templates and
// handlers never hard-code paths.
package nav

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Breadcrumb is one entry in the hierarchical trail atop a dashboard page.
// The active entry is the current page and renders without a link.
type Breadcrumb struct {
	Label  string
	URL    string
	Active bool
}

// Crumb returns a linked breadcrumb.
func Crumb(label, url string) Breadcrumb {
	return Breadcrumb{Label: label, URL: url}
}

// ActiveCrumb returns the trailing, unlinked breadcrumb.
func ActiveCrumb(label string) Breadcrumb {
	return Breadcrumb{Label: label, Active: true}
}

// Route names registered by DefaultRoutes.
const (
	RouteDashboardIndex   = "dashboard-index"
	RouteAccountsList     = "accounts-list"
	RouteAccountsCreate   = "accounts-create"
	RouteAccountsDetail   = "accounts-detail"
	RouteAccountsUpdate   = "accounts-update"
	RouteAccountsFreeze   = "accounts-freeze"
	RouteAccountsThaw     = "accounts-thaw"
	RouteAccountsTopUp    = "accounts-top-up"
	RouteTransfersList    = "transfers-list"
	RouteTransfersDetail  = "transfers-detail"
	RouteTransfersReverse = "transfers-reverse"
)

// Routes maps symbolic names to URL patterns. Patterns use "{}" as the
// positional placeholder filled by Reverse.
type Routes struct {
	mu       sync.RWMutex
	patterns map[string]string
}

// NewRoutes creates an empty route table.
func NewRoutes() *Routes {
	return &Routes{patterns: make(map[string]string)}
}

// DefaultRoutes returns the route table for a dashboard mounted at basePath.
func DefaultRoutes(basePath string) *Routes {
	base := strings.TrimRight(strings.TrimSpace(basePath), "/")
	r := NewRoutes()
	r.Register(RouteDashboardIndex, base+"/")
	r.Register(RouteAccountsList, base+"/accounts/")
	r.Register(RouteAccountsCreate, base+"/accounts/create/")
	r.Register(RouteAccountsDetail, base+"/accounts/{}/")
	r.Register(RouteAccountsUpdate, base+"/accounts/{}/update/")
	r.Register(RouteAccountsFreeze, base+"/accounts/{}/freeze/")
	r.Register(RouteAccountsThaw, base+"/accounts/{}/thaw/")
	r.Register(RouteAccountsTopUp, base+"/accounts/{}/top-up/")
	r.Register(RouteTransfersList, base+"/transfers/")
	r.Register(RouteTransfersDetail, base+"/transfers/{}/")
	r.Register(RouteTransfersReverse, base+"/transfers/{}/reverse/")
	return r
}

// Register adds or replaces a named pattern.
func (r *Routes) Register(name, pattern string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns[name] = pattern
}

// Reverse resolves a route name, substituting args for "{}" placeholders in
// order. It errors on unknown names and placeholder/argument mismatches.
func (r *Routes) Reverse(name string, args ...any) (string, error) {
	r.mu.RLock()
	pattern, ok := r.patterns[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("nav: route %q not registered", name)
	}

	placeholders := strings.Count(pattern, "{}")
	if placeholders != len(args) {
		return "", fmt.Errorf("nav: route %q expects %d args, got %d", name, placeholders, len(args))
	}

	out := pattern
	for _, arg := range args {
		out = strings.Replace(out, "{}", fmt.Sprint(arg), 1)
	}
	return out, nil
}

// MustReverse resolves a route name, panicking on failure. Intended for
// wiring code where the route table is known-complete.
func (r *Routes) MustReverse(name string, args ...any) string {
	url, err := r.Reverse(name, args...)
	if err != nil {
		panic(err)
	}
	return url
}

// Names returns the registered route names, sorted.
func (r *Routes) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
