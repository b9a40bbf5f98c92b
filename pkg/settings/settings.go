// Package settings holds the runtime configuration that shapes the accounts
// dashboard: which optional form fields exist, the bounds on initial
// transactions, and the naming used in titles and breadcrumbs.
package settings

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-accounts/pkg/account"
)

// Settings is the parsed configuration. Categories and SourceCodes control
// whether the account_type and source_account fields appear on forms at all.
type Settings struct {
	UnitName       string
	UnitNamePlural string
	DashboardTitle string
	CurrencySymbol string

	Categories  []string
	SourceCodes []string

	MinInitialAmount account.Amount
	MaxInitialAmount *account.Amount
}

type fileSettings struct {
	UnitName       string   `yaml:"unit_name"`
	UnitNamePlural string   `yaml:"unit_name_plural"`
	DashboardTitle string   `yaml:"dashboard_title"`
	CurrencySymbol string   `yaml:"currency_symbol"`
	Categories     []string `yaml:"categories"`
	SourceCodes    []string `yaml:"source_accounts"`
	MinInitial     string   `yaml:"min_initial_amount"`
	MaxInitial     string   `yaml:"max_initial_amount"`
}

// Default returns the settings used when no configuration file is supplied.
func Default() Settings {
	return Settings{
		UnitName:       "Account",
		UnitNamePlural: "Accounts",
		DashboardTitle: "Dashboard",
		CurrencySymbol: "$",
	}
}

// Parse decodes YAML settings, applying defaults for absent keys.
func Parse(data []byte) (Settings, error) {
	var raw fileSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("settings: parse yaml: %w", err)
	}

	out := Default()
	if v := strings.TrimSpace(raw.UnitName); v != "" {
		out.UnitName = v
	}
	if v := strings.TrimSpace(raw.UnitNamePlural); v != "" {
		out.UnitNamePlural = v
	}
	if v := strings.TrimSpace(raw.DashboardTitle); v != "" {
		out.DashboardTitle = v
	}
	if v := strings.TrimSpace(raw.CurrencySymbol); v != "" {
		out.CurrencySymbol = v
	}
	out.Categories = cleanList(raw.Categories)
	out.SourceCodes = cleanList(raw.SourceCodes)

	if v := strings.TrimSpace(raw.MinInitial); v != "" {
		amount, err := account.ParseAmount(v)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: min_initial_amount: %w", err)
		}
		out.MinInitialAmount = amount
	}
	if v := strings.TrimSpace(raw.MaxInitial); v != "" {
		amount, err := account.ParseAmount(v)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: max_initial_amount: %w", err)
		}
		out.MaxInitialAmount = &amount
	}

	return out, nil
}

// Load reads settings from a YAML file. A missing path yields defaults.
func Load(path string) (Settings, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Settings{}, fmt.Errorf("settings: read %q: %w", path, err)
	}
	return Parse(data)
}

// HasCategories reports whether the account_type field exists on forms.
func (s Settings) HasCategories() bool { return len(s.Categories) > 0 }

// HasSourceAccounts reports whether create forms offer a source selector.
func (s Settings) HasSourceAccounts() bool { return len(s.SourceCodes) > 0 }

// FormatAmount renders an amount with the configured currency symbol.
func (s Settings) FormatAmount(a account.Amount) string {
	return s.CurrencySymbol + a.String()
}

func cleanList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
