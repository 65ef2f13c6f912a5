package config

import (
	"github.com/dookofcrds/PenFramework/internal/core"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// Dump renders the effective configuration as YAML. The API key is never
// printed.
func Dump(config *core.Config) ([]byte, error) {
	c := *config
	if c.Upload.APIKey != "" {
		c.Upload.APIKey = redacted
	}
	return yaml.Marshal(&c)
}
