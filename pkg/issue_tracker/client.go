package issue_tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klokku/flextime/internal/config"
	"github.com/klokku/flextime/pkg/credential"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var (
	ErrNotConfigured      = errors.New("issue tracker url is not configured")
	ErrCredentialMissing  = errors.New("no credentials stored for the issue tracker")
	ErrAuthentication     = errors.New("issue tracker rejected the credentials")
	ErrResourceNotFound   = errors.New("issue tracker resource not found")
	ErrConnectionTimeout  = errors.New("connection to the issue tracker timed out")
	ErrUnexpectedResponse = errors.New("unexpected issue tracker response")
)

const maxErrorBody = 4096

// Account is the user the tracker authenticated.
type Account struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

type Client interface {
	// AddWorklog books seconds on ticket. POST {url}/rest/api/2/issue/{ticket}/worklog
	AddWorklog(ctx context.Context, ticket string, seconds int) error
	// Verify checks the stored credentials. GET {url}/rest/api/2/myself
	Verify(ctx context.Context) (Account, error)
}

// SettingsSource provides the tracker url and user id as currently configured.
type SettingsSource interface {
	Settings() config.Settings
}

type ClientImpl struct {
	settings    SettingsSource
	credentials credential.Store
	auth        config.TrackerAuth
	timeout     time.Duration
	transport   http.RoundTripper
}

func NewClient(settings SettingsSource, credentials credential.Store, cfg config.Tracker) *ClientImpl {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ClientImpl{
		settings:    settings,
		credentials: credentials,
		auth:        cfg.Auth,
		timeout:     timeout,
		transport:   http.DefaultTransport,
	}
}

type worklogRequest struct {
	TimeSpentSeconds int `json:"timeSpentSeconds"`
}

func (c *ClientImpl) AddWorklog(ctx context.Context, ticket string, seconds int) error {
	body, err := json.Marshal(worklogRequest{TimeSpentSeconds: seconds})
	if err != nil {
		return err
	}
	path := "/rest/api/2/issue/" + url.PathEscape(ticket) + "/worklog"
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, ticket); err != nil {
		log.Errorf("Failed to add worklog to %s: %v", ticket, err)
		return err
	}
	log.Infof("Added worklog of %d seconds to %s", seconds, ticket)
	return nil
}

func (c *ClientImpl) Verify(ctx context.Context) (Account, error) {
	resp, err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil)
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "myself"); err != nil {
		return Account{}, err
	}
	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		log.Errorf("Failed to decode tracker account: %v", err)
		return Account{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return account, nil
}

// do sends one request with the configured authentication. There are no retries.
func (c *ClientImpl) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	settings := c.settings.Settings()
	if settings.URL == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	if settings.UID == "" {
		return nil, fmt.Errorf("%w: user id is not set", ErrCredentialMissing)
	}
	secret, err := c.credentials.Get(settings.UID)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrCredentialMissing, settings.UID)
		}
		return nil, fmt.Errorf("%w: %v", ErrCredentialMissing, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(settings.URL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.httpClient(ctx, settings.UID, secret, req)
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrConnectionTimeout, base.Host)
		}
		log.Errorf("Request to %s failed: %v", base.Host, err)
		return nil, fmt.Errorf("request to %s failed: %w", base.Host, err)
	}
	return resp, nil
}

func (c *ClientImpl) httpClient(ctx context.Context, uid, secret string, req *http.Request) *http.Client {
	if c.auth == config.TokenAuth {
		base := &http.Client{Transport: c.transport}
		client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base),
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secret, TokenType: "Bearer"}))
		client.Timeout = c.timeout
		return client
	}
	req.SetBasicAuth(uid, secret)
	return &http.Client{Transport: c.transport, Timeout: c.timeout}
}

func checkStatus(resp *http.Response, resource string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrResourceNotFound, resource)
	}
	message, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: status %d: %s", ErrUnexpectedResponse, resp.StatusCode, strings.TrimSpace(string(message)))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
