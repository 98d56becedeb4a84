// Package api is a client for the AuthMachine REST API, which sits next to
// the OIDC endpoints and is authenticated with a static API token rather
// than a user's access token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	sdkHTTP "github.com/authmachine/authmachine-go/sdk/http"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrRequestFailed    = errors.New("api request failed")
)

// StatusError is returned when the API answers with a non-200 status.  It
// matches ErrRequestFailed via errors.Is, and keeps the status and body so a
// caller can distinguish "the call failed" from "the call succeeded with an
// empty result".
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request failed: status %d: %s", e.StatusCode, string(e.Body))
}

func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}

// DefaultRequestTimeout bounds every API request unless overridden.
const DefaultRequestTimeout = 30 * time.Second

// Client is an authenticated AuthMachine API client.  It is immutable after
// construction and safe for concurrent use.
type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
	logger   hclog.Logger
}

// New creates a Client for the API rooted at baseURL (typically the same
// base URL as the OIDC issuer), authenticating every request with apiToken.
// Supported options: WithProviderCA, WithRequestTimeout, WithLogger,
// WithHTTPClient
func New(baseURL string, apiToken string, opt ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is empty: %w", ErrInvalidParameter)
	}
	if apiToken == "" {
		return nil, fmt.Errorf("api token is empty: %w", ErrInvalidParameter)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("base URL %s is invalid: %w", baseURL, err)
	}
	opts := getOpts(opt...)
	client := opts.withHTTPClient
	if client == nil {
		var err error
		client, err = sdkHTTP.NewClient(opts.withProviderCA, opts.withRequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("could not get an http client: %w", err)
		}
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		client:   client,
		logger:   opts.withLogger,
	}, nil
}

// Do performs one authenticated API request: method and path relative to the
// base URL, an optional JSON payload and optional multi-value query
// parameters.  Requests carry "Authorization: Token {api_token}" and
// "Content-Type: application/json".  The parsed body is returned only for
// HTTP 200; any other status returns a *StatusError so callers never
// confuse a failure with an empty result.
func (c *Client) Do(ctx context.Context, method string, path string, payload interface{}, query url.Values) ([]byte, error) {
	if method == "" {
		return nil, fmt.Errorf("method is empty: %w", ErrInvalidParameter)
	}
	if path == "" {
		return nil, fmt.Errorf("path is empty: %w", ErrInvalidParameter)
	}
	absoluteURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		absoluteURL += "?" + query.Encode()
	}

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("unable to encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), absoluteURL, body)
	if err != nil {
		return nil, fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiToken)

	c.logger.Debug("api request", "method", req.Method, "url", absoluteURL)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", absoluteURL, err)
	}
	defer resp.Body.Close()

	respBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response from %s: %w", absoluteURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

// GetPermissions returns the permissions the provider holds for userID,
// optionally scoped to the given object identifiers.  A zero-permission user
// yields an empty list and a nil error; any failed request yields a non-nil
// error. The two are never conflated.
func (c *Client) GetPermissions(ctx context.Context, userID string, objects ...string) ([]string, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is empty: %w", ErrInvalidParameter)
	}
	var query url.Values
	if len(objects) > 0 {
		query = url.Values{"object": objects}
	}
	path := fmt.Sprintf("api/scim/v1/Users/%s/permissions", url.PathEscape(userID))
	body, err := c.Do(ctx, http.MethodGet, path, nil, query)
	if err != nil {
		return nil, err
	}
	var permissions []string
	if err := json.Unmarshal(body, &permissions); err != nil {
		return nil, fmt.Errorf("malformed permissions response: %w", err)
	}
	return permissions, nil
}
