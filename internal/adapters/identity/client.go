package identity

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hostel_hub/internal/adapters/observability"
	"hostel_hub/internal/domain"
)

// Client talks to a hosted identity REST API (accounts:signUp,
// accounts:signInWithPassword, accounts:sendOobCode).
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("identity API key is required")
	}
	if base == "" {
		return nil, fmt.Errorf("identity base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	var out accountResponse
	if err := c.post(ctx, "accounts:signUp", passwordRequest{email, password, true}, &out); err != nil {
		return "", err
	}
	if out.LocalID == "" {
		return "", errors.New("identity: sign-up returned no uid")
	}
	return out.LocalID, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var out accountResponse
	if err := c.post(ctx, "accounts:signInWithPassword", passwordRequest{email, password, true}, &out); err != nil {
		return "", err
	}
	if out.LocalID == "" {
		return "", domain.ErrInvalidCredentials
	}
	return out.LocalID, nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	body := map[string]string{"requestType": "PASSWORD_RESET", "email": email}
	return c.post(ctx, "accounts:sendOobCode", body, nil)
}

// ---- Internals ----

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mapAPIError turns provider error codes into domain errors. Messages may
// carry a suffix ("WEAK_PASSWORD : Password should be ...").
func mapAPIError(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	code := strings.TrimSpace(strings.SplitN(ae.Error.Message, ":", 2)[0])
	switch code {
	case "EMAIL_EXISTS":
		return domain.ErrEmailTaken
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return domain.ErrInvalidCredentials
	case "WEAK_PASSWORD":
		return domain.NewValidationError(domain.FieldError{Field: "password", Message: "password is too weak"})
	case "INVALID_EMAIL":
		return domain.NewValidationError(domain.FieldError{Field: "email", Message: "email must be a valid email address"})
	}
	if code == "" {
		code = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("identity: bad status %d: %s", status, code)
}

// post sends a JSON body with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided.
func (c *Client) post(ctx context.Context, endpoint string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	u := c.base + "/" + endpoint + "?key=" + url.QueryEscape(c.key)

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hostel-hub/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("identity", endpoint, 0, time.Since(start))
			observability.ObserveExternalError("identity", endpoint, err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("identity", endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("identity: remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return mapAPIError(resp.StatusCode, b)
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
