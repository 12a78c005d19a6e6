package testfixtures

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/study-portal/internal/bootstrap"
	"github.com/example/study-portal/internal/config"
)

// Seeded administrator credentials used by AppHarness.
const (
	AdminUsername = "admin"
	AdminPassword = "adminpass"
)

// AppHarness runs a fully wired portal behind an httptest.Server backed by a
// temporary database and upload directory. Record ids are sequential and time
// only moves when Clock is advanced.
type AppHarness struct {
	App    *bootstrap.App
	Server *httptest.Server
	Config config.Config
	Clock  *Clock
}

// AppOption adjusts the harness configuration before the app is built.
type AppOption func(*config.Config)

// WithMaxUploadBytes overrides the upload ceiling.
func WithMaxUploadBytes(n int64) AppOption {
	return func(cfg *config.Config) { cfg.MaxUploadBytes = n }
}

// NewAppHarness boots the portal and registers cleanup with tb.
func NewAppHarness(tb testing.TB, opts ...AppOption) *AppHarness {
	tb.Helper()

	dir := tb.TempDir()
	cfg := config.Config{
		SQLiteDSN:       filepath.Join(dir, "portal.db"),
		SessionSecret:   "harness-secret",
		SessionTTL:      2 * time.Hour,
		Environment:     "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		UploadDir:       filepath.Join(dir, "uploads"),
		MaxUploadBytes:  1 << 20,
		AdminUsername:   AdminUsername,
		AdminPassword:   AdminPassword,
		RequestTimeout:  10 * time.Second,
		HashConcurrency: 2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := NewClock(time.Time{})
	app, err := bootstrap.New(context.Background(), cfg, logger,
		bootstrap.WithHasher(NewCheapHasher()),
		bootstrap.WithClock(clock.Now),
		bootstrap.WithIDGenerator(NewIDGenerator("rec").Next),
	)
	if err != nil {
		tb.Fatalf("failed to build app: %v", err)
	}
	server := httptest.NewServer(app.Handler())
	tb.Cleanup(func() {
		server.Close()
		_ = app.Close()
	})

	return &AppHarness{App: app, Server: server, Config: cfg, Clock: clock}
}

// Client returns a client with its own cookie jar, standing in for one browser.
func (h *AppHarness) Client(tb testing.TB) *Client {
	tb.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		tb.Fatalf("cookie jar: %v", err)
	}
	return &Client{
		tb:   tb,
		base: h.Server.URL,
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

// Client issues requests against the harness and keeps session cookies.
type Client struct {
	tb   testing.TB
	base string
	http *http.Client
}

// Do sends req and fails the test on transport errors. The body is fully read
// and replaced so callers need not close it.
func (c *Client) Do(req *http.Request) *http.Response {
	c.tb.Helper()

	resp, err := c.http.Do(req)
	if err != nil {
		c.tb.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		c.tb.Fatalf("read body: %v", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp
}

// Get issues a GET request to path.
func (c *Client) Get(path string) *http.Response {
	c.tb.Helper()

	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		c.tb.Fatalf("build request: %v", err)
	}
	return c.Do(req)
}

// PostJSON issues a POST request with body encoded as JSON.
func (c *Client) PostJSON(path string, body any) *http.Response {
	c.tb.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		c.tb.Fatalf("encode body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		c.tb.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// Login posts credentials to the login endpoint.
func (c *Client) Login(username, password string) *http.Response {
	c.tb.Helper()
	return c.PostJSON("/api/auth/login", map[string]string{"username": username, "password": password})
}

// Upload posts a multipart material with a file part of the given MIME type.
func (c *Client) Upload(title, description, fileName, mimeType string, content []byte) *http.Response {
	c.tb.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("description", description)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		c.tb.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		c.tb.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		c.tb.Fatalf("close multipart: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.base+"/api/materials/upload", &buf)
	if err != nil {
		c.tb.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.Do(req)
}

// DecodeJSON decodes the response body into dst.
func DecodeJSON(tb testing.TB, resp *http.Response, dst any) {
	tb.Helper()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		tb.Fatalf("decode response (status %d): %v", resp.StatusCode, err)
	}
}
