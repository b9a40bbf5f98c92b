package users

import (
	"net/http"

	"github.com/goliatone/go-accounts/internal/store"
)

// GuardFunc rejects a request before the directory is queried. Returning an
// error that implements HTTPError controls the response status.
type GuardFunc func(r *http.Request) error

// Options configures the user search endpoint.
type Options struct {
	RoutePath    string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc

	Directory store.UserDirectory
}

// OptionFn mutates Options during construction.
type OptionFn func(*Options)

// DefaultOptions returns the endpoint defaults. A Directory must still be
// supplied before the handler can serve results.
func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/users",
		SearchParam:  "q",
		LimitParam:   "limit",
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// NewOptions applies overrides on top of the defaults and normalizes the
// result.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/users"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	return opts
}

// WithDirectory sets the backing user directory.
func WithDirectory(directory store.UserDirectory) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Directory = directory
	}
}

// WithRoutePath overrides the mount path relative to the component base.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithSearchParam renames the query parameter.
func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

// WithLimitParam renames the limit parameter.
func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

// WithDefaultLimit sets the result count used when no limit is requested.
func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

// WithMaxLimit caps the requestable result count.
func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

// WithGuard installs a request guard.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func clampLimit(limit int, opts Options) int {
	if limit <= 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
