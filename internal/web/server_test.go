package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/payrecon/internal/config"
	"github.com/JonMunkholm/payrecon/internal/core"
	_ "github.com/JonMunkholm/payrecon/internal/core/profiles"
	"github.com/JonMunkholm/payrecon/internal/loader"
)

const (
	timesheetCSV = "Pointage mars 2024\nNCIN;NOM;JRS/HRS\nAB1;Ali;160\nAB2;Sara;170\n"
	payrollCSV   = "NCIN;NOM;JRS/HRS;AMO;CNSS\nAB1;Ali;160;100;200\nAB2;Sara;160;100;200\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
		Upload:    config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: 10 * time.Second},
		Security:  config.SecurityConfig{EnableCSP: true},
		Reconcile: config.ReconcileConfig{DefaultProfile: "standard", HintDistance: 2},
		Logging:   config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T, modify func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if modify != nil {
		modify(cfg)
	}
	svc := core.NewService(loader.New(cfg.Upload.MaxFileSize), core.NewMemoryStore(10),
		core.WithRunLimiter(core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
		core.WithTimeout(cfg.Upload.Timeout),
	)
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

type part struct {
	field, name, data string
}

func multipartBody(t *testing.T, fields map[string]string, files ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := fw.Write([]byte(f.data)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func postReconcile(t *testing.T, s *Server, profile string, files ...part) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, nil, files...)
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/"+profile, body)
	req.Header.Set("Content-Type", ct)
	return serve(s, req)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v: %s", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("security headers missing: %v", rec.Header())
	}
}

func TestListProfiles(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))

	var profiles []ProfileSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &profiles); err != nil {
		t.Fatalf("body: %v", err)
	}
	found := false
	for _, p := range profiles {
		if p.Key == "standard" {
			found = true
		}
	}
	if !found {
		t.Errorf("profiles = %v, want standard", profiles)
	}
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles/standard", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"key":"standard"`) {
		t.Errorf("JSON profile = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles/standard?format=yaml", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if _, err := core.ParseProfile(rec.Body.Bytes()); err != nil {
		t.Errorf("YAML profile does not parse back: %v", err)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles/nope", nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "PRF001" {
		t.Errorf("unknown profile = %d %s", rec.Code, rec.Body.String())
	}
}

func TestReconcile_API(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postReconcile(t, s, "standard",
		part{"timesheet", "pointage.csv", timesheetCSV},
		part{"payroll", "journal.csv", payrollCSV},
	)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ReconcileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	if resp.Report == nil || resp.Report.Summary.Total != 2 {
		t.Fatalf("report = %+v", resp.Report)
	}
	if e := resp.Report.Entries[1]; e.ID != "AB2" || e.Status != core.StatusInconsistent {
		t.Errorf("AB2 = %s %q, want Inconsistent", e.ID, e.Status)
	}
	if resp.URL != "/runs/"+resp.RunID {
		t.Errorf("URL = %q", resp.URL)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	var runs []core.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("runs body: %v", err)
	}
	if len(runs) != 1 || runs[0].ID.String() != resp.RunID || runs[0].Issues != 1 {
		t.Errorf("runs = %+v", runs)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/runs/"+resp.RunID, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"timesheetFile":"pointage.csv"`) {
		t.Errorf("get run = %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Sara") {
		t.Errorf("run page = %d", rec.Code)
	}
}

func TestReconcile_API_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	ts := part{"timesheet", "pointage.csv", timesheetCSV}

	tests := []struct {
		name       string
		profile    string
		files      []part
		wantStatus int
		wantCode   string
		wantSource string
	}{
		{
			name:       "header not found",
			profile:    "standard",
			files:      []part{ts, {"payroll", "journal.csv", "MATRICULE;HEURES\n1;160\n"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "HDR001",
			wantSource: "payroll",
		},
		{
			name:       "missing payroll file",
			profile:    "standard",
			files:      []part{ts},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name:       "unsupported file type",
			profile:    "standard",
			files:      []part{ts, {"payroll", "journal.pdf", "%PDF-1.4"}},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "FILE002",
		},
		{
			name:       "unknown profile",
			profile:    "nope",
			files:      []part{ts, {"payroll", "journal.csv", payrollCSV}},
			wantStatus: http.StatusNotFound,
			wantCode:   "PRF001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postReconcile(t, s, tt.profile, tt.files...)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
			if resp.Source != tt.wantSource {
				t.Errorf("source = %q, want %q", resp.Source, tt.wantSource)
			}
		})
	}
}

func TestReconcile_NotMultipart(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/standard", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(s, req)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "FILE004" {
		t.Errorf("non-multipart = %d %s", rec.Code, rec.Body.String())
	}
}

func TestReconcileForm(t *testing.T) {
	s := newTestServer(t, nil)

	body, ct := multipartBody(t, map[string]string{"profile": "standard"},
		part{"timesheet", "pointage.csv", timesheetCSV},
		part{"payroll", "journal.csv", payrollCSV},
	)
	req := httptest.NewRequest(http.MethodPost, "/reconcile", body)
	req.Header.Set("Content-Type", ct)
	rec := serve(s, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303: %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/runs/") {
		t.Errorf("Location = %q", loc)
	}

	body, ct = multipartBody(t, map[string]string{"profile": "standard"},
		part{"timesheet", "pointage.csv", timesheetCSV},
	)
	req = httptest.NewRequest(http.MethodPost, "/reconcile", body)
	req.Header.Set("Content-Type", ct)
	rec = serve(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `role="alert"`) || !strings.Contains(rec.Body.String(), "FILE004") {
		t.Errorf("form error page should show the alert: %s", rec.Body.String())
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `<option value="standard" selected>`) {
		t.Errorf("index should preselect the default profile")
	}
	if !strings.Contains(out, "No reconciliations yet.") {
		t.Errorf("index should show the empty run list")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/runs/not-a-uuid", "/api/runs/6f1c1c52-5d43-4f43-9d1e-2b0c6b1f4a11"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "RUN001" {
			t.Errorf("GET %s = %d %s", path, rec.Code, rec.Body.String())
		}
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "RUN001") {
		t.Errorf("run page = %d", rec.Code)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k1"}
	})

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles", nil)); rec.Code != http.StatusUnauthorized {
		t.Errorf("without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("X-API-Key", "k1")
	if rec := serve(s, req); rec.Code != http.StatusOK {
		t.Errorf("with key = %d, want 200", rec.Code)
	}

	if rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200 without key", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, ReconcileLimit: 1}
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = serve(s, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" || decodeError(t, last).Code != "RATE001" {
		t.Errorf("429 response = %v %s", last.Header(), last.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", core.ErrUnknownProfile), http.StatusNotFound},
		{core.ErrRunNotFound, http.StatusNotFound},
		{&core.HeaderNotFoundError{Source: core.SourcePayroll}, http.StatusUnprocessableEntity},
		{fmt.Errorf("payroll: %w", loader.ErrTooLarge), http.StatusRequestEntityTooLarge},
		{core.ErrTooManyRuns, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("payroll: %w", loader.ErrEmpty), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 50},
		{"limit=10", 10},
		{"limit=0", 50},
		{"limit=abc", 50},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/runs?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 50); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
