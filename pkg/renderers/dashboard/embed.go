package dashboard

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html templates/partials/*.html
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

const (
	StylesheetName = "accounts-dashboard.css"
	ScriptName     = "accounts-dashboard.js"
)

// TemplatesFS exposes the embedded template bundle for consumers that want
// the built-in markup out of the box.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// AssetsFS exposes the embedded CSS/JS bundle so callers can serve it over
// HTTP or copy it into their own asset pipeline.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
