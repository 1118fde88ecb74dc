// Package captcha verifies client captcha tokens against a siteverify
// endpoint (reCAPTCHA, hCaptcha and Turnstile speak the same protocol).
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
)

// ErrUnavailable is returned when the verification endpoint cannot be reached
var ErrUnavailable = errors.New("captcha verifier unavailable")

// Verifier checks one client token
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Client is a siteverify HTTP client
type Client struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
}

func NewClient(secret, verifyURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		secret:    secret,
		verifyURL: verifyURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Verify returns nil when the token is accepted, domain.ErrCaptchaFailed when
// it is rejected and ErrUnavailable when the endpoint fails
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrCaptchaFailed
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if !result.Success {
		return domain.ErrCaptchaFailed.WithError(fmt.Errorf("rejected: %s", strings.Join(result.ErrorCodes, ",")))
	}

	return nil
}

// AllowAll accepts every token. Used in development when no secret is set.
type AllowAll struct{}

func (AllowAll) Verify(context.Context, string, string) error {
	return nil
}
