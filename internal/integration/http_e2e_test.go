//go:build integration || !unit

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/crypto/bcrypt"

	httpserver "hostel_hub/internal/adapters/http_server"
	"hostel_hub/internal/adapters/identity"
	"hostel_hub/internal/adapters/mailer"
	redisad "hostel_hub/internal/adapters/redis"
	"hostel_hub/internal/app"
	mysqlrepo "hostel_hub/internal/storage/mysql"
)

// ---------- helpers ----------
func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sqlx.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sqlx.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=hostel_hub"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hostel_hub?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sqlx.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sqlx.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)
	return db
}

type client struct {
	t    *testing.T
	base string
}

// call sends a JSON request and decodes a JSON response into out (if set).
func (c client) call(method, path, token string, in, out any) int {
	c.t.Helper()
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &body)
	if err != nil {
		c.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func (c client) expect(want int, method, path, token string, in, out any) {
	c.t.Helper()
	if got := c.call(method, path, token, in, out); got != want {
		c.t.Fatalf("%s %s: status %d, want %d", method, path, got, want)
	}
}

// ---------- the test ----------
func TestHTTP_EndToEnd_Marketplace(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	n := app.NewNotifier(mailer.Log{}, "support@hostelhub.test")
	hostels := app.NewHostelService(repo, repo, cache, nil, time.Minute)
	s := httpserver.New()
	s.MountHandlers(&httpserver.Handlers{
		Auth:      app.NewAuthService(repo, identity.NewLocal(repo, bcrypt.MinCost), app.NewTokenIssuer("e2e-secret", time.Hour)),
		Profiles:  app.NewProfileService(repo, nil),
		Hostels:   hostels,
		Bookings:  app.NewBookingService(repo, repo, repo, cache, n),
		Payments:  app.NewPaymentService(repo, repo, repo, n),
		Favorites: app.NewFavoriteService(repo, repo),
		Dashboard: app.NewDashboardService(repo, repo, repo, repo),
		Landing:   app.NewLandingService(repo, repo, cache, n, time.Minute),
	})
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()
	c := client{t: t, base: ts.URL}

	signUp := func(email, role string) string {
		var sess app.Session
		c.expect(http.StatusCreated, http.MethodPost, "/v1/auth/signup", "", map[string]string{
			"email": email, "password": "s3cret-pass", "password_confirm": "s3cret-pass",
			"full_name": "E2E " + role, "role": role,
		}, &sess)
		return sess.Token
	}
	owner := signUp("owner@e2e.test", "business")
	agent := signUp("agent@e2e.test", "agent")
	student := signUp("student@e2e.test", "student")

	// agent lists on behalf of the business
	var draft struct {
		ID      string  `json:"id"`
		OwnerID string  `json:"owner_id"`
		AgentID *string `json:"agent_id"`
	}
	c.expect(http.StatusCreated, http.MethodPost, "/v1/hostels", agent, map[string]string{
		"name": "E2E Lodge", "type": "hostel",
		"description": "Rooms for the end-to-end test, close to campus.",
		"owner_email": "owner@e2e.test",
	}, &draft)
	if draft.AgentID == nil {
		t.Fatalf("draft has no agent: %+v", draft)
	}
	base := "/v1/hostels/" + draft.ID
	c.expect(http.StatusOK, http.MethodPut, base+"/steps/2", agent, map[string]any{"address": "1 Test Street", "city": "Accra"}, nil)
	c.expect(http.StatusOK, http.MethodPut, base+"/steps/3", agent, map[string]any{
		"price_cents": 30000, "currency": "GHS", "rooms": 1, "available_rooms": 1, "gender_policy": "mixed",
	}, nil)
	c.expect(http.StatusOK, http.MethodPut, base+"/steps/4", owner, map[string]any{"amenities": []string{"wifi", "security"}}, nil)
	c.expect(http.StatusOK, http.MethodPost, base+"/publish", owner, nil, nil)

	// public search goes through Redis
	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	c.expect(http.StatusOK, http.MethodGet, "/v1/hostels?amenity=security", "", nil, &page)
	if len(page.Items) != 1 || page.Items[0].ID != draft.ID {
		t.Fatalf("unexpected search page: %+v", page)
	}
	if keys := mr.Keys(); len(keys) == 0 {
		t.Fatalf("search page was not cached")
	}

	var booking struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	c.expect(http.StatusCreated, http.MethodPost, "/v1/bookings", student, map[string]any{
		"hostel_id": draft.ID, "move_in": time.Now().AddDate(0, 1, 0).Format("2006-01-02"), "months": 3,
	}, &booking)
	c.expect(http.StatusOK, http.MethodPost, "/v1/bookings/"+booking.ID+"/confirm", agent, nil, &booking)
	if booking.Status != "confirmed" {
		t.Fatalf("booking status %q", booking.Status)
	}

	var hostel struct {
		AvailableRooms int `json:"available_rooms"`
	}
	c.expect(http.StatusOK, http.MethodGet, base, "", nil, &hostel)
	if hostel.AvailableRooms != 0 {
		t.Fatalf("available rooms %d after confirm, want 0", hostel.AvailableRooms)
	}

	c.expect(http.StatusCreated, http.MethodPost, "/v1/payments", student, map[string]any{"booking_id": booking.ID, "method": "mobile_money"}, nil)
	c.expect(http.StatusConflict, http.MethodPost, "/v1/payments", student, map[string]any{"booking_id": booking.ID, "method": "card"}, nil)

	var sum struct {
		Business *struct {
			RevenueCents int64 `json:"revenue_cents"`
		} `json:"business"`
	}
	c.expect(http.StatusOK, http.MethodGet, "/dashboard/business", owner, nil, &sum)
	if sum.Business == nil || sum.Business.RevenueCents != 90000 {
		t.Fatalf("unexpected business summary: %+v", sum.Business)
	}

	c.expect(http.StatusOK, http.MethodPost, "/v1/bookings/"+booking.ID+"/cancel", student, nil, nil)
	c.expect(http.StatusOK, http.MethodGet, base, "", nil, &hostel)
	if hostel.AvailableRooms != 1 {
		t.Fatalf("available rooms %d after cancel, want 1", hostel.AvailableRooms)
	}
}
