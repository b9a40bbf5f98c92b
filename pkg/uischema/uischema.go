// Package uischema loads optional YAML/JSON overlay documents that tune how
// the dashboard renders a view without touching the form builders. Deployments
// drop files next to the binary to relabel fields, change help text, or pin a
// widget for a specific form.
package uischema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-accounts/pkg/forms"
)

// Store keeps the parsed overrides keyed by view id (for example
// "accounts.create"). It is safe for concurrent readers when treated as
// immutable after construction.
type Store struct {
	views map[string]View
}

// View describes the overrides for a single dashboard view.
type View struct {
	ID     string
	Source string
	Form   FormConfig
	Fields map[string]FieldConfig
}

// FormConfig captures view-level chrome overrides.
type FormConfig struct {
	Title       string `json:"title" yaml:"title"`
	SubmitLabel string `json:"submitLabel" yaml:"submitLabel"`
}

// FieldConfig customises how one field renders.
type FieldConfig struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	HelpText    string `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Widget      string `json:"widget,omitempty" yaml:"widget,omitempty"`
}

type documentFile struct {
	Views map[string]viewFile `json:"views" yaml:"views"`
}

type viewFile struct {
	Form   FormConfig             `json:"form" yaml:"form"`
	Fields map[string]FieldConfig `json:"fields" yaml:"fields"`
}

// LoadFS walks the provided filesystem and parses JSON/YAML override files.
// When fsys is nil or no files are present, the returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{views: make(map[string]View)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", path, err)
		}

		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for rawID, raw := range doc.Views {
			id := strings.TrimSpace(rawID)
			if id == "" {
				return fmt.Errorf("uischema: file %s defines an empty view id", path)
			}
			if _, exists := store.views[id]; exists {
				return fmt.Errorf("uischema: duplicate view %q (file %s)", id, path)
			}

			fields := make(map[string]FieldConfig, len(raw.Fields))
			for name, cfg := range raw.Fields {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				fields[name] = cfg
			}
			store.views[id] = View{
				ID:     id,
				Source: path,
				Form:   raw.Form,
				Fields: fields,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return store, nil
}

// View returns the overrides for the supplied view id.
func (s *Store) View(id string) (View, bool) {
	if s == nil {
		return View{}, false
	}
	view, ok := s.views[id]
	return view, ok
}

// Empty reports whether the store holds any views.
func (s *Store) Empty() bool {
	return s == nil || len(s.views) == 0
}

// Apply mutates the form in place with any overrides registered for the view
// id. Missing views and unknown field names are ignored.
func (s *Store) Apply(id string, form *forms.FormState) {
	if form == nil {
		return
	}
	view, ok := s.View(id)
	if !ok {
		return
	}

	for name, cfg := range view.Fields {
		field := form.Field(name)
		if field == nil {
			continue
		}
		if label := strings.TrimSpace(cfg.Label); label != "" {
			field.Label = label
		}
		if help := strings.TrimSpace(cfg.HelpText); help != "" {
			field.HelpText = help
		}
		if placeholder := strings.TrimSpace(cfg.Placeholder); placeholder != "" {
			field.Placeholder = placeholder
		}
		if widget := strings.TrimSpace(cfg.Widget); widget != "" {
			field.Widget = widget
		}
	}
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("uischema: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("uischema: parse %s: invalid JSON or YAML", source)
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
