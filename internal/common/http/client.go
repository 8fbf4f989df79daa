// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Client is an HTTP client that attaches a bearer credential to every request.
type Client struct {
	httpClient *http.Client
}

// NewBearerClient returns a client that authenticates with a static access token.
func NewBearerClient(accessToken string, timeout time.Duration) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: src,
				Base:   http.DefaultTransport,
			},
		},
	}
}

// Get issues a GET request with the Accept header set to JSON.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}
