package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"minimarket/internal/config"
	"minimarket/internal/http/handlers"
	"minimarket/internal/repos"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	store := repos.NewDocStore(db)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	cfg := config.Config{GuestCartPolicy: config.GuestCartDiscard}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Use(recover.New())
	app.Use(requestid.New())
	deps := handlers.NewDeps(store, cfg)
	handlers.Mount(app, deps)
	return &testApp{app: app, db: db, deps: deps}
}

// do sends a request with an optional JSON body and returns the response
// with its body already read.
func (ta *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, out
}

func sidCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return &http.Cookie{Name: "sid", Value: c.Value}
		}
	}
	return nil
}

// login signs email in on the given session (new one when nil) and
// returns the session cookie.
func (ta *testApp) login(t *testing.T, email, password string, sid *http.Cookie) *http.Cookie {
	t.Helper()
	resp, body := ta.do(t, "POST", "/api/v1/auth/login", map[string]string{"email": email, "password": password}, sid)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, resp.StatusCode, body)
	}
	if sid != nil {
		return sid
	}
	c := sidCookie(resp)
	if c == nil {
		t.Fatal("login did not issue a sid cookie")
	}
	return c
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

const (
	customerEmail = "ana@laeconomia.test"
	adminEmail    = "admin@laeconomia.test"
	seedPassword  = "Passw0rd!"
)
