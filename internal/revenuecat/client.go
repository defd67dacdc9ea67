package revenuecat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const defaultBaseURL = "https://api.revenuecat.com/v1"

// Client checks RevenueCat subscriber entitlements (server-side).
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	entitlementID string
	now           func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the default 10s-timeout HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a RevenueCat API client. An empty secretKey or
// entitlementID yields a client that reports no entitlements.
func NewClient(secretKey, entitlementID string, opts ...Option) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		baseURL:       defaultBaseURL,
		secretKey:     strings.TrimSpace(secretKey),
		entitlementID: strings.TrimSpace(entitlementID),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the client has credentials to query the API.
func (c *Client) Enabled() bool {
	return c.secretKey != "" && c.entitlementID != ""
}

// subscriberResponse matches GET /subscribers/{app_user_id}.
type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]struct {
			ExpiresDate *string `json:"expires_date"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

// HasEntitlement reports whether appUserID holds the configured entitlement
// with no expiry or an expiry in the future. Unknown subscribers are not entitled.
func (c *Client) HasEntitlement(ctx context.Context, appUserID string) (bool, error) {
	appUserID = strings.TrimSpace(appUserID)
	if !c.Enabled() || appUserID == "" {
		return false, nil
	}

	endpoint := c.baseURL + "/subscribers/" + url.PathEscape(appUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("revenuecat api status %d", resp.StatusCode)
	}

	var body subscriberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode subscriber: %w", err)
	}

	ent, ok := body.Subscriber.Entitlements[c.entitlementID]
	if !ok {
		return false, nil
	}
	// null expires_date = lifetime
	if ent.ExpiresDate == nil || *ent.ExpiresDate == "" {
		return true, nil
	}
	expires, err := time.Parse(time.RFC3339, *ent.ExpiresDate)
	if err != nil {
		return false, nil
	}
	return c.now().Before(expires), nil
}
