// dump.go: rendering the effective configuration for inspection.
package conf

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const redactedValue = "[redacted]"

// Redacted returns a copy of the settings with credentials masked, safe to
// print or attach to a support request.
func (s *Settings) Redacted() *Settings {
	c := *s
	if c.Reddit.ClientSecret != "" {
		c.Reddit.ClientSecret = redactedValue
	}
	if c.Reddit.RefreshToken != "" {
		c.Reddit.RefreshToken = redactedValue
	}
	if c.Webhook.Auth.Token != "" {
		c.Webhook.Auth.Token = redactedValue
	}
	if c.Webhook.Auth.Pass != "" {
		c.Webhook.Auth.Pass = redactedValue
	}
	if c.Webhook.Auth.Value != "" {
		c.Webhook.Auth.Value = redactedValue
	}
	if c.Output.MySQL.Password != "" {
		c.Output.MySQL.Password = redactedValue
	}
	if c.Output.Postgres.DSN != "" {
		c.Output.Postgres.DSN = redactedValue
	}
	return &c
}

// DumpYAML renders the settings as YAML with secrets redacted.
func DumpYAML(s *Settings) (string, error) {
	data, err := yaml.Marshal(s.Redacted())
	if err != nil {
		return "", fmt.Errorf("error marshaling settings: %w", err)
	}
	return string(data), nil
}
