package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modwatch/modwatch-go/internal/conf"
	"github.com/modwatch/modwatch-go/internal/errors"
	"github.com/modwatch/modwatch-go/internal/httpclient"
	"github.com/modwatch/modwatch-go/internal/logging"
)

const (
	// defaultWebhookTimeout is the default timeout for webhook HTTP requests
	defaultWebhookTimeout = 30 * time.Second

	// maxErrorBodySize limits error response body reading
	maxErrorBodySize = 1024

	// Webhook authentication type constants
	authTypeNone   = "none"
	authTypeBearer = "bearer"
	authTypeBasic  = "basic"
	authTypeCustom = "custom"
)

// WebhookProvider delivers embed documents to one or more webhook endpoints,
// attempting each in order until one succeeds. Delivery is best-effort: no
// retries, failures surface to the caller.
type WebhookProvider struct {
	name      string
	endpoints []WebhookEndpoint
	client    *httpclient.Client
	log       *slog.Logger
}

// WebhookEndpoint represents a single webhook destination with its
// configuration.
type WebhookEndpoint struct {
	URL     string
	Method  string // POST, PUT, PATCH
	Headers map[string]string
	Timeout time.Duration
	Auth    WebhookAuth
}

// WebhookAuth holds authentication credentials for webhook requests.
type WebhookAuth struct {
	Type   string // "none", "bearer", "basic", "custom"
	Token  string
	User   string
	Pass   string
	Header string // custom header name
	Value  string // custom header value
}

// webhookPayload is the JSON document posted to the endpoint.
type webhookPayload struct {
	Embeds []*Embed `json:"embeds"`
}

// NewWebhookProvider creates a webhook provider with the given endpoints.
func NewWebhookProvider(name string, endpoints []WebhookEndpoint) *WebhookProvider {
	wp := &WebhookProvider{
		name:      strings.TrimSpace(name),
		endpoints: slices.Clone(endpoints),
		log:       webhookLogger(),
	}
	if wp.name == "" {
		wp.name = "webhook"
	}

	cfg := httpclient.DefaultConfig()
	cfg.DefaultTimeout = defaultWebhookTimeout
	wp.client = httpclient.New(&cfg)

	return wp
}

// FromSettings creates a webhook provider from the application settings.
func FromSettings(settings *conf.Settings) *WebhookProvider {
	endpoint := WebhookEndpoint{
		URL:     settings.Webhook.URL,
		Method:  http.MethodPost,
		Timeout: settings.Webhook.Timeout,
		Auth: WebhookAuth{
			Type:   settings.Webhook.Auth.Type,
			Token:  settings.Webhook.Auth.Token,
			User:   settings.Webhook.Auth.User,
			Pass:   settings.Webhook.Auth.Pass,
			Header: settings.Webhook.Auth.Header,
			Value:  settings.Webhook.Auth.Value,
		},
	}
	return NewWebhookProvider(settings.Main.Name, []WebhookEndpoint{endpoint})
}

// webhookLogger returns the structured logger for this package, falling back
// to the process default when logging is not initialized.
func webhookLogger() *slog.Logger {
	if l := logging.ForService("notification"); l != nil {
		return l
	}
	return slog.Default().With("service", "notification")
}

// GetName returns the provider name for logging and configuration.
func (w *WebhookProvider) GetName() string {
	return w.name
}

// GetEndpoints returns a copy of the configured endpoints.
func (w *WebhookProvider) GetEndpoints() []WebhookEndpoint {
	return slices.Clone(w.endpoints)
}

// ValidateConfig validates the webhook provider configuration. Called once
// during startup to catch configuration errors before the loop starts.
func (w *WebhookProvider) ValidateConfig() error {
	if len(w.endpoints) == 0 {
		return fmt.Errorf("at least one webhook endpoint is required")
	}
	for i := range w.endpoints {
		if err := w.validateEndpoint(i, &w.endpoints[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateEndpoint validates a single webhook endpoint configuration.
func (w *WebhookProvider) validateEndpoint(index int, endpoint *WebhookEndpoint) error {
	if endpoint.URL == "" {
		return fmt.Errorf("endpoint %d: URL is required", index)
	}

	method := strings.ToUpper(strings.TrimSpace(endpoint.Method))
	if method == "" {
		method = http.MethodPost
	}
	endpoint.Method = method
	if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
		return fmt.Errorf("endpoint %d: method must be POST, PUT, or PATCH, got %s", index, method)
	}

	u, err := url.Parse(endpoint.URL)
	if err != nil {
		return fmt.Errorf("endpoint %d: invalid URL: %w", index, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %d: URL scheme must be http or https, got %s", index, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %d: URL host is required", index)
	}

	if endpoint.Timeout < 0 {
		return fmt.Errorf("endpoint %d: timeout must be >= 0", index)
	}

	if err := validateWebhookAuth(&endpoint.Auth); err != nil {
		return fmt.Errorf("endpoint %d: %w", index, err)
	}
	return nil
}

// validateWebhookAuth validates webhook authentication settings.
func validateWebhookAuth(auth *WebhookAuth) error {
	authType := strings.ToLower(auth.Type)
	if authType == "" {
		authType = authTypeNone
		auth.Type = authType
	}

	switch authType {
	case authTypeNone:
		return nil
	case authTypeBearer:
		if auth.Token == "" {
			return fmt.Errorf("bearer auth requires token")
		}
	case authTypeBasic:
		if auth.User == "" || auth.Pass == "" {
			return fmt.Errorf("basic auth requires user and pass")
		}
	case authTypeCustom:
		if auth.Header == "" {
			return fmt.Errorf("custom auth requires header name")
		}
		if strings.ContainsAny(auth.Header, "\r\n:") {
			return fmt.Errorf("custom auth header contains invalid characters")
		}
		if auth.Value == "" {
			return fmt.Errorf("custom auth requires value")
		}
		if strings.ContainsAny(auth.Value, "\r\n") {
			return fmt.Errorf("custom auth value contains invalid characters")
		}
	default:
		return fmt.Errorf("unsupported auth type: %s", authType)
	}
	return nil
}

// Send delivers an embed to the configured endpoints, stopping at the first
// success. Returns an error when all endpoints fail; the caller decides what
// to do with it, no retries happen here.
func (w *WebhookProvider) Send(ctx context.Context, embed *Embed) error {
	if len(w.endpoints) == 0 {
		return fmt.Errorf("no webhook endpoints configured")
	}

	payload, err := json.Marshal(webhookPayload{Embeds: []*Embed{embed}})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	deliveryID := uuid.New().String()

	errs := make([]error, 0, len(w.endpoints))
	for i := range w.endpoints {
		endpoint := &w.endpoints[i]

		endpointCtx := ctx
		var cancel context.CancelFunc
		if endpoint.Timeout > 0 {
			endpointCtx, cancel = context.WithTimeout(ctx, endpoint.Timeout)
		}

		err := w.sendToEndpoint(endpointCtx, endpoint, payload)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			w.log.Debug("webhook delivered",
				"delivery_id", deliveryID,
				"endpoint", i)
			return nil
		}

		w.log.Warn("webhook endpoint failed",
			"delivery_id", deliveryID,
			"endpoint", i,
			"error", err)
		errs = append(errs, fmt.Errorf("endpoint %d: %w", i, err))

		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled while sending webhook: %w", ctx.Err())
		}
	}

	return fmt.Errorf("all webhook endpoints failed: %w", errors.Join(errs...))
}

// sendToEndpoint sends the payload to a single webhook endpoint.
func (w *WebhookProvider) sendToEndpoint(ctx context.Context, endpoint *WebhookEndpoint, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, endpoint.Method, endpoint.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range endpoint.Headers {
		req.Header.Set(key, value)
	}

	if err := applyWebhookAuth(req, &endpoint.Auth); err != nil {
		return fmt.Errorf("failed to apply auth: %w", err)
	}

	resp, err := w.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("request cancelled: %w", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("request timed out: %w", err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// applyWebhookAuth applies authentication to the HTTP request.
func applyWebhookAuth(req *http.Request, auth *WebhookAuth) error {
	switch strings.ToLower(auth.Type) {
	case authTypeNone, "":
		return nil
	case authTypeBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case authTypeBasic:
		req.SetBasicAuth(auth.User, auth.Pass)
	case authTypeCustom:
		req.Header.Set(auth.Header, auth.Value)
	default:
		return fmt.Errorf("unsupported auth type: %s", auth.Type)
	}
	return nil
}

// Close releases resources used by the webhook provider.
func (w *WebhookProvider) Close() {
	if w.client != nil {
		w.client.Close()
	}
}
