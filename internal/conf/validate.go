// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct. A validation failure
// is fatal at startup: the watcher never enters its loop with an incomplete
// configuration.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateRedditSettings(&settings.Reddit); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if strings.TrimSpace(settings.Subreddit) == "" {
		ve.Errors = append(ve.Errors, "subreddit must be set")
	}

	if err := validateWebhookSettings(&settings.Webhook); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateOutputSettings(&settings.Output); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Poll.Interval <= 0 {
		ve.Errors = append(ve.Errors, "poll.interval must be greater than zero")
	}
	if settings.Poll.Limit <= 0 || settings.Poll.Limit > 100 {
		ve.Errors = append(ve.Errors, "poll.limit must be between 1 and 100")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateRedditSettings checks that all feed client credentials are present.
func validateRedditSettings(settings *RedditSettings) error {
	var missing []string
	if settings.ClientID == "" {
		missing = append(missing, "reddit.clientid")
	}
	if settings.ClientSecret == "" {
		missing = append(missing, "reddit.clientsecret")
	}
	if settings.RefreshToken == "" {
		missing = append(missing, "reddit.refreshtoken")
	}
	if settings.UserAgent == "" {
		missing = append(missing, "reddit.useragent")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing reddit credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// validateWebhookSettings checks the webhook URL and authentication settings.
func validateWebhookSettings(settings *WebhookSettings) error {
	var errs []string

	if settings.URL == "" {
		errs = append(errs, "webhook.url must be set")
	} else {
		u, err := url.Parse(settings.URL)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("webhook.url is not a valid URL: %v", err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Sprintf("webhook.url scheme must be http or https, got %s", u.Scheme))
		case u.Host == "":
			errs = append(errs, "webhook.url host is required")
		}
	}

	switch strings.ToLower(settings.Auth.Type) {
	case "", "none":
	case "bearer":
		if settings.Auth.Token == "" {
			errs = append(errs, "webhook.auth.token is required for bearer auth")
		}
	case "basic":
		if settings.Auth.User == "" || settings.Auth.Pass == "" {
			errs = append(errs, "webhook.auth.user and webhook.auth.pass are required for basic auth")
		}
	case "custom":
		if settings.Auth.Header == "" || settings.Auth.Value == "" {
			errs = append(errs, "webhook.auth.header and webhook.auth.value are required for custom auth")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported webhook.auth.type: %s", settings.Auth.Type))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateOutputSettings checks that exactly one dedup store backend is
// enabled and minimally configured.
func validateOutputSettings(settings *OutputSettings) error {
	enabled := 0
	if settings.SQLite.Enabled {
		enabled++
		if settings.SQLite.Path == "" {
			return fmt.Errorf("output.sqlite.path must be set when SQLite output is enabled")
		}
	}
	if settings.MySQL.Enabled {
		enabled++
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			return fmt.Errorf("output.mysql.host and output.mysql.database must be set when MySQL output is enabled")
		}
	}
	if settings.Postgres.Enabled {
		enabled++
		if settings.Postgres.DSN == "" {
			return fmt.Errorf("output.postgres.dsn must be set when PostgreSQL output is enabled")
		}
	}

	switch {
	case enabled == 0:
		return fmt.Errorf("no dedup store backend enabled; enable one of output.sqlite, output.mysql or output.postgres")
	case enabled > 1:
		return fmt.Errorf("multiple dedup store backends enabled; enable exactly one")
	}
	return nil
}
