package betfair

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBettingBase = "https://api.betfair.com/exchange/betting/rest/v1.0"
	defaultLoginBase   = "https://identitysso-cert.betfair.com/api"

	// Betfair permite ~20 transacciones/segundo por app key en el API de
	// betting; nos quedamos al 60% para no rozar el límite.
	bettingRatePerSec = 12
	// El endpoint de login es mucho más estricto.
	loginRatePerSec = 1

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el HTTP client del API REST de Betfair con rate limiting y retries.
type Client struct {
	http           *http.Client
	bettingBase    string
	loginBase      string
	appKey         string
	session        string
	bettingLimiter *rate.Limiter
	loginLimiter   *rate.Limiter
}

// NewClient crea un Client con los base URLs dados.
// Si bettingBase o loginBase están vacíos, usa los URLs de producción.
func NewClient(bettingBase, loginBase, appKey string) *Client {
	if bettingBase == "" {
		bettingBase = defaultBettingBase
	}
	if loginBase == "" {
		loginBase = defaultLoginBase
	}
	return &Client{
		http:           &http.Client{Timeout: 10 * time.Second},
		bettingBase:    bettingBase,
		loginBase:      loginBase,
		appKey:         appKey,
		bettingLimiter: rate.NewLimiter(bettingRatePerSec, 5),
		loginLimiter:   rate.NewLimiter(loginRatePerSec, 1),
	}
}

// SetSession fija el token de sesión usado en las llamadas autenticadas.
func (c *Client) SetSession(token string) {
	c.session = token
}

// Session devuelve el token de sesión actual.
func (c *Client) Session() string {
	return c.session
}

// post hace un POST JSON autenticado al API de betting, con rate limiting y retries.
func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	url := c.bettingBase + endpoint
	return c.doWithRetry(ctx, c.bettingLimiter, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Application", c.appKey)
		req.Header.Set("X-Authentication", c.session)
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial y jitter.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("rate limited by API", "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
