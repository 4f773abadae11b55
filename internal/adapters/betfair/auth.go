package betfair

// auth.go — Betfair identity SSO login.
//
// Prefers the certificate login endpoint (non-interactive, needs a client
// TLS cert registered with the account); falls back to the interactive
// endpoint when no cert is configured. Either way the result is an opaque
// session token carried on every stream and REST action.

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LoginParams are the credentials used to obtain a session token.
type LoginParams struct {
	Username string
	Password string
	CertFile string
	KeyFile  string
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
	LoginStatus  string `json:"loginStatus"`
	// interactive endpoint uses different field names
	Token  string `json:"token"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Login authenticates against the identity SSO and stores the session token
// on the client. Invalidation of the token is only ever discovered through
// failed operations; there is no expiry tracking.
func (c *Client) Login(ctx context.Context, p LoginParams) (string, error) {
	if p.Username == "" || p.Password == "" {
		return "", fmt.Errorf("betfair.Login: missing username or password")
	}

	httpClient := c.http
	endpoint := c.loginBase + "/login"
	if p.CertFile != "" && p.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(p.CertFile, p.KeyFile)
		if err != nil {
			return "", fmt.Errorf("betfair.Login: load cert: %w", err)
		}
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
			},
		}
		endpoint = c.loginBase + "/certlogin"
	}

	if err := c.loginLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("betfair.Login: rate limiter: %w", err)
	}

	form := url.Values{}
	form.Set("username", p.Username)
	form.Set("password", p.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("betfair.Login: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Application", c.appKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("betfair.Login: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("betfair.Login: status %d", resp.StatusCode)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("betfair.Login: decode: %w", err)
	}

	token := lr.SessionToken
	status := lr.LoginStatus
	if token == "" {
		token = lr.Token
		status = lr.Status
	}
	if status != "SUCCESS" || token == "" {
		return "", fmt.Errorf("betfair.Login: rejected: %s %s", status, lr.Error)
	}

	c.session = token
	return token, nil
}
