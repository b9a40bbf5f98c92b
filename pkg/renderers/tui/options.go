package tui

// OutputFormat selects how a completed prompt session is serialized by
// Render.
type OutputFormat string

const (
	// OutputJSON serializes the answers as a JSON object.
	OutputJSON OutputFormat = "json"
	// OutputForm serializes the answers as application/x-www-form-urlencoded.
	OutputForm OutputFormat = "form"
)

type config struct {
	driver PromptDriver
	output OutputFormat
}

// Option customizes the interactive renderer.
type Option func(*config)

// WithPromptDriver swaps the terminal driver, mainly for tests.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *config) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithOutputFormat sets the serialization used by Render.
func WithOutputFormat(format OutputFormat) Option {
	return func(c *config) {
		switch format {
		case OutputJSON, OutputForm:
			c.output = format
		}
	}
}
