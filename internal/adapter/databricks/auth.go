package databricks

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials selects how requests are authorised. A personal access token
// wins over a service principal when both are set.
type Credentials struct {
	Token        string
	ClientID     string
	ClientSecret string
}

func (c Credentials) validate() error {
	if c.Token != "" {
		return nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("either a token or a client id and secret are required")
	}
	return nil
}

// NewHTTPClient returns an *http.Client that attaches a bearer token to every
// request. Service principal tokens are fetched from the workspace OIDC
// endpoint and refreshed by the oauth2 transport.
func NewHTTPClient(ctx context.Context, host string, creds Credentials, timeout time.Duration) (*http.Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	base, err := normalizeHost(host)
	if err != nil {
		return nil, err
	}

	// oauth2 picks the underlying client out of the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	})

	var src oauth2.TokenSource
	if creds.Token != "" {
		src = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: strings.TrimSpace(creds.Token),
			TokenType:   "Bearer",
		})
	} else {
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     base + "/oidc/v1/token",
			Scopes:       []string{"all-apis"},
		}
		src = cc.TokenSource(ctx)
	}

	client := oauth2.NewClient(ctx, src)
	client.Timeout = timeout
	return client, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}
