package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/hostsync/internal/logger"
	"github.com/MrSnakeDoc/hostsync/internal/metrics"
	"github.com/MrSnakeDoc/hostsync/internal/utils"
)

const endpointSuffix = "api_jsonrpc.php"

// Options defines how the client reaches and authenticates against the API.
type Options struct {
	URL               string        // frontend URL, with or without api_jsonrpc.php
	User              string        // used with Password when Token is empty
	Password          string        // optional
	Token             string        // API token, preferred over User/Password
	Timeout           time.Duration // per-request timeout
	RequestsPerSecond float64       // 0 = unlimited
	Insecure          bool          // skip TLS verification
	HTTPClient        *http.Client  // optional, overrides Timeout/Insecure
}

// Client is a JSON-RPC 2.0 client for the monitoring server API.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	logger   logger.Logger

	user     string
	password string
	token    string

	mu      sync.Mutex
	session string

	nextID atomic.Int64
}

// APIError is the error object of a JSON-RPC response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s (code %d)", e.Message, e.Data, e.Code)
}

// sessionExpired reports whether the server rejected our credentials and a
// fresh login may help.
func (e *APIError) sessionExpired() bool {
	text := e.Message + " " + e.Data
	return strings.Contains(text, "re-login") || strings.Contains(text, "Not authorised")
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

// New validates the options and builds a client. No request is sent.
func New(opts Options, log logger.Logger) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("zabbix url is required")
	}
	if opts.Token == "" && opts.User == "" {
		return nil, errors.New("either an api token or a user is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: opts.Insecure, //nolint:gosec // opt-in for lab servers
				},
			},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		endpoint: endpoint(opts.URL),
		http:     httpClient,
		limiter:  limiter,
		logger:   log,
		user:     opts.User,
		password: opts.Password,
		token:    opts.Token,
	}, nil
}

func endpoint(url string) string {
	url = strings.TrimRight(url, "/")
	if strings.HasSuffix(url, endpointSuffix) {
		return url
	}
	return url + "/" + endpointSuffix
}

// Version returns the API version. It needs no authentication.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	if err := c.do(ctx, "apiinfo.version", []string{}, "", &v); err != nil {
		return "", err
	}
	return v, nil
}

// Call invokes method with params and decodes the result into out (may be nil).
// An expired session triggers one re-login and retry.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	auth, err := c.credential(ctx)
	if err != nil {
		return err
	}

	err = c.do(ctx, method, params, auth, out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.sessionExpired() && c.token == "" {
		c.logger.Info("zabbix session expired, logging in again", logger.String("method", method))
		c.resetSession()
		if auth, err = c.credential(ctx); err != nil {
			return err
		}
		err = c.do(ctx, method, params, auth, out)
	}
	return err
}

// credential returns the bearer value, logging in lazily.
func (c *Client) credential(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != "" {
		return c.session, nil
	}

	var session string
	params := map[string]string{"username": c.user, "password": c.password}
	if err := c.do(ctx, "user.login", params, "", &session); err != nil {
		return "", fmt.Errorf("login as %s: %w", c.user, err)
	}
	c.session = session
	c.logger.Debug("logged in to zabbix", logger.String("user", c.user))
	return session, nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	c.session = ""
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method string, params any, auth string, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveRemoteCall(method, err, time.Since(start)) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json-rpc")
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected http status %d: %s", method, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var rpc response
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpc.Error != nil {
		return rpc.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpc.Result, out); err != nil {
		return fmt.Errorf("unexpected %s result: %w", method, err)
	}
	return nil
}
