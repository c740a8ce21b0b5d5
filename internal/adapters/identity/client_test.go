package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hostel_hub/internal/adapters/identity"
	"hostel_hub/internal/domain"
)

func TestClient_SignIn_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithPassword" || r.URL.Query().Get("key") != "test-key" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"localId": "uid-1", "email": "a@b.co"})
		}
	}))
	defer ts.Close()

	cl, err := identity.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	uid, err := cl.SignIn(ctx, "a@b.co", "secret-pass")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if uid != "uid-1" {
		t.Fatalf("uid = %q", uid)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		message string
		want    error
	}{
		{"EMAIL_EXISTS", domain.ErrEmailTaken},
		{"INVALID_PASSWORD", domain.ErrInvalidCredentials},
		{"EMAIL_NOT_FOUND", domain.ErrInvalidCredentials},
		{"INVALID_LOGIN_CREDENTIALS", domain.ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(400)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"` + tc.message + `"}}`))
			}))
			defer ts.Close()

			cl, _ := identity.New(ts.URL, "k", 100)
			_, err := cl.SignUp(context.Background(), "a@b.co", "secret-pass")
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestClient_WeakPasswordIsValidationError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`))
	}))
	defer ts.Close()

	cl, _ := identity.New(ts.URL, "k", 100)
	_, err := cl.SignUp(context.Background(), "a@b.co", "x")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Map()["password"] == "" {
		t.Fatalf("expected password validation error, got %v", err)
	}
}

func TestClient_SendPasswordReset(t *testing.T) {
	var body map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"email":"a@b.co"}`))
	}))
	defer ts.Close()

	cl, _ := identity.New(ts.URL, "k", 100)
	if err := cl.SendPasswordReset(context.Background(), "a@b.co"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if body["requestType"] != "PASSWORD_RESET" || body["email"] != "a@b.co" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := identity.New("http://x", "", 1); err == nil {
		t.Fatal("expected error without API key")
	}
}
