package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/hashicorp/go-retryablehttp"

	"x-proxy/internal/cache"
	"x-proxy/internal/logging"
)

// OAuthCredentials is an optional user-context credential set. When
// present the client signs requests with OAuth1 instead of sending the
// app-only bearer header.
type OAuthCredentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// ClientOptions configures the upstream client.
type ClientOptions struct {
	BaseURL     string
	BearerToken string
	OAuth       *OAuthCredentials
	Timeout     time.Duration
	Cache       *cache.Store
	CacheTTL    time.Duration
	Debug       bool
}

// Client performs single GETs against the upstream API through the
// response cache.
type Client struct {
	base   string
	bearer string
	http   *retryablehttp.Client
	store  *cache.Store
	ttl    time.Duration
}

// NewClient builds a Client. A nil Cache gets a fresh store; a zero
// CacheTTL leaves the cache disabled.
func NewClient(opts ClientOptions) *Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	// Upstream status codes drive the fallback decisions; automatic
	// retries on 429 would hide exactly the signal we branch on.
	c.RetryMax = 0
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	if opts.OAuth != nil {
		conf := oauth1.NewConfig(opts.OAuth.ConsumerKey, opts.OAuth.ConsumerSecret)
		token := oauth1.NewToken(opts.OAuth.AccessToken, opts.OAuth.AccessSecret)
		signing := conf.Client(oauth1.NoContext, token)
		signing.Timeout = c.HTTPClient.Timeout
		c.HTTPClient = signing
	}
	if opts.Debug {
		c.HTTPClient.Transport = logging.Transport(c.HTTPClient.Transport)
	}

	store := opts.Cache
	if store == nil {
		store = cache.New()
	}
	return &Client{
		base:   strings.TrimRight(opts.BaseURL, "/"),
		bearer: opts.BearerToken,
		http:   c,
		store:  store,
		ttl:    opts.CacheTTL,
	}
}

// Get fetches one upstream resource through the cache. Completed non-200
// responses return normally so callers can branch on the status;
// transport failures (DNS, timeout, reset) come back as an error.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (int, any, http.Header, error) {
	full := c.base + path
	return c.store.GetOrFetch(full, params, c.ttl, func() (int, any, http.Header, error) {
		return c.do(ctx, full, params)
	})
}

func (c *Client) do(ctx context.Context, fullURL string, params url.Values) (int, any, http.Header, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("upstream body: %w", err)
	}
	return resp.StatusCode, decodeBody(resp.Header.Get("Content-Type"), raw), resp.Header, nil
}

// decodeBody parses JSON-like payloads; anything else is wrapped so the
// caller still gets a JSON-shaped structure.
func decodeBody(contentType string, raw []byte) any {
	if strings.Contains(contentType, "json") {
		var body any
		if err := json.Unmarshal(raw, &body); err == nil {
			return body
		}
	}
	return map[string]any{"text": string(raw)}
}
