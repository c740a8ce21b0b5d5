package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hostel_hub/internal/adapters/identity"
	"hostel_hub/internal/app"
	"hostel_hub/internal/storage/memory"
)

type testAPI struct {
	srv    *httptest.Server
	client *http.Client
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.New()
	cache := memory.NewCache()
	n := app.NewNotifier(nil, "")
	hostels := app.NewHostelService(store, store, cache, nil, time.Minute)

	s := New()
	s.MountHandlers(&Handlers{
		Auth:      app.NewAuthService(store, identity.NewLocal(store, bcrypt.MinCost), app.NewTokenIssuer("handler-test", time.Hour)),
		Profiles:  app.NewProfileService(store, nil),
		Hostels:   hostels,
		Bookings:  app.NewBookingService(store, store, store, cache, n),
		Payments:  app.NewPaymentService(store, store, store, n),
		Favorites: app.NewFavoriteService(store, store),
		Dashboard: app.NewDashboardService(store, store, store, store),
		Landing:   app.NewLandingService(store, store, cache, n, time.Minute),
	})
	srv := httptest.NewServer(s.Mux())
	t.Cleanup(srv.Close)

	return &testAPI{
		srv: srv,
		client: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any, hdr ...string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	resp, err := a.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *testAPI) signUp(t *testing.T, email, role string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"email": email, "password": "s3cret-pass", "password_confirm": "s3cret-pass",
		"full_name": "Test User", "role": role,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[app.Session](t, resp).Token
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	api.signUp(t, "ada@example.com", "student")

	resp = api.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{
		"email": "ada@example.com", "password": "s3cret-pass", "password_confirm": "s3cret-pass",
		"full_name": "Ada Again", "role": "student",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "ada@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// the cookie alone authenticates
	req, err := http.NewRequest(http.MethodGet, api.srv.URL+"/v1/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	me, err := api.client.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
	acc := decode[app.Account](t, me)
	assert.Equal(t, "ada@example.com", acc.User.Email)

	resp = api.do(t, http.MethodPost, "/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestValidationProblem(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/v1/auth/signup", "", map[string]string{"email": "nope", "role": "admin"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	p := decode[problem](t, resp)
	assert.Equal(t, "Validation Failed", p.Title)
	assert.Contains(t, p.Errors, "email")
	assert.Contains(t, p.Errors, "role")
	assert.Equal(t, "this field is required", p.Errors["password"])

	req, err := http.NewRequest(http.MethodPost, api.srv.URL+"/v1/auth/login", bytes.NewBufferString("{"))
	require.NoError(t, err)
	bad, err := api.client.Do(req)
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	resp = api.do(t, http.MethodGet, "/v1/hostels?limit=ten", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "limit must be an integer", decode[problem](t, resp).Errors["limit"])

	resp = api.do(t, http.MethodGet, "/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListingAndBookingOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	owner := api.signUp(t, "owner@example.com", "business")
	student := api.signUp(t, "ada@example.com", "student")

	resp := api.do(t, http.MethodPost, "/v1/hostels", student, map[string]string{
		"name": "Nope", "type": "hostel", "description": "Students cannot list hostels at all.",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/v1/hostels", owner, map[string]string{
		"name": "Campus Lodge", "type": "hostel", "description": "Quiet rooms five minutes from the main gate.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hostelID := decode[struct {
		ID string `json:"id"`
	}](t, resp).ID
	assert.Equal(t, "/v1/hostels/"+hostelID+"/wizard", resp.Header.Get("Location"))
	base := "/v1/hostels/" + hostelID

	resp = api.do(t, http.MethodPut, base+"/steps/3", owner, map[string]any{"price_cents": 100})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = api.do(t, http.MethodPut, base+"/steps/7", owner, map[string]any{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	steps := []struct {
		n    string
		body map[string]any
	}{
		{"2", map[string]any{"address": "12 Herbert Macaulay Way", "city": "Lagos"}},
		{"3", map[string]any{"price_cents": 45000, "currency": "NGN", "rooms": 1, "available_rooms": 1, "gender_policy": "mixed"}},
		{"4", map[string]any{"amenities": []string{"wifi"}, "images": []string{}}},
	}
	for _, st := range steps {
		resp = api.do(t, http.MethodPut, base+"/steps/"+st.n, owner, st.body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "step %s", st.n)
	}
	resp = api.do(t, http.MethodPost, base+"/publish", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// ETag round trip on the public search
	resp = api.do(t, http.MethodGet, "/v1/hostels?city=lagos", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	resp = api.do(t, http.MethodGet, "/v1/hostels?city=lagos", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/v1/bookings", student, map[string]any{
		"hostel_id": hostelID, "move_in": time.Now().AddDate(0, 0, 14).Format("2006-01-02"), "months": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bookingID := decode[struct {
		ID string `json:"id"`
	}](t, resp).ID

	resp = api.do(t, http.MethodPost, "/v1/bookings/"+bookingID+"/confirm", student, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = api.do(t, http.MethodPost, "/v1/bookings/"+bookingID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/v1/payments", student, map[string]any{"booking_id": bookingID, "method": "card"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = api.do(t, http.MethodPost, "/v1/payments", student, map[string]any{"booking_id": bookingID, "method": "card"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = api.do(t, http.MethodPut, "/v1/favorites/"+hostelID, student, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodGet, "/dashboard/student/favorites", student, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sec := decode[struct {
		Section string            `json:"section"`
		Items   []json.RawMessage `json:"items"`
	}](t, resp)
	assert.Equal(t, "favorites", sec.Section)
	assert.Len(t, sec.Items, 1)

	resp = api.do(t, http.MethodGet, "/dashboard/business/properties", owner, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// images need a configured blob store
	resp = api.do(t, http.MethodPost, base+"/images", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDashboardGuard(t *testing.T) {
	api := newTestAPI(t)
	agent := api.signUp(t, "agent@example.com", "agent")

	cases := []struct {
		name     string
		token    string
		path     string
		status   int
		location string
	}{
		{"anonymous", "", "/dashboard/agent", http.StatusFound, "/login?next=%2Fdashboard%2Fagent"},
		{"bad token is anonymous", "garbage", "/dashboard", http.StatusFound, "/login?next=%2Fdashboard"},
		{"root", agent, "/dashboard", http.StatusFound, "/dashboard/agent"},
		{"foreign", agent, "/dashboard/student/bookings", http.StatusFound, "/dashboard/agent"},
		{"own", agent, "/dashboard/agent", http.StatusOK, ""},
		{"own section", agent, "/dashboard/agent/bookings", http.StatusOK, ""},
		{"student only section", agent, "/dashboard/agent/favorites", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.do(t, http.MethodGet, tc.path, tc.token, nil)
			require.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.location, resp.Header.Get("Location"))
		})
	}
}
