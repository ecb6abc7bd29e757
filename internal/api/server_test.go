package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"talknote/internal/api"
	"talknote/internal/config"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/testsupport"
	"talknote/internal/workflow"
)

const owner = "alice"

// recordingSubmitter creates the ledger row like the real manager but never
// runs the pipeline.
type recordingSubmitter struct {
	store *ledger.Store

	mu       sync.Mutex
	requests []workflow.Request
}

func (r *recordingSubmitter) Submit(ctx context.Context, req workflow.Request) (string, error) {
	kind := ledger.SourceFile
	if workflow.SourceKind(req.Source) == "url" {
		kind = ledger.SourceURL
	}
	job, err := r.store.Create(ctx, req.Owner, kind, req.Source)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return job.ID, nil
}

func (r *recordingSubmitter) Active() int { return 0 }

func (r *recordingSubmitter) last(t *testing.T) workflow.Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		t.Fatal("expected a submitted request")
	}
	return r.requests[len(r.requests)-1]
}

type fixture struct {
	cfg    *config.Config
	store  *ledger.Store
	jobs   *recordingSubmitter
	hub    *logging.StreamHub
	server *api.Server
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenLedger(t, cfg)
	jobs := &recordingSubmitter{store: store}
	hub := logging.NewStreamHub(64)
	server := api.NewServer(api.Options{
		Config:         cfg,
		Store:          store,
		Jobs:           jobs,
		Hub:            hub,
		StreamInterval: 10 * time.Millisecond,
	})
	return &fixture{cfg: cfg, store: store, jobs: jobs, hub: hub, server: server}
}

func (f *fixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(api.OwnerHeader, owner)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSubmitURLAccepted(t *testing.T) {
	f := newFixture(t)
	body := bytes.NewBufferString(`{"url":"https://example.com/talk","accuracy":"high","language":"German"}`)

	rec := f.do(t, http.MethodPost, "/api/jobs", body, "application/json")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.SubmitResponse](t, rec)
	if resp.JobID == "" {
		t.Fatal("expected job id")
	}
	req := f.jobs.last(t)
	if req.Owner != owner || req.QualityPreset != "high" || req.TargetLanguage != "German" || req.RemoveSource {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestSubmitRejectsBadInput(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{name: "empty url", body: `{"url":"  "}`, contentType: "application/json", want: http.StatusBadRequest},
		{name: "not http", body: `{"url":"ftp://host/file"}`, contentType: "application/json", want: http.StatusBadRequest},
		{name: "malformed json", body: `{`, contentType: "application/json", want: http.StatusBadRequest},
		{name: "unsupported type", body: "x", contentType: "text/plain", want: http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/api/jobs", bytes.NewBufferString(tt.body), tt.contentType)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestSubmitUploadStoresFile(t *testing.T) {
	f := newFixture(t)
	body, contentType := multipartBody(t, "../weekly sync.mp3", []byte("audio"), map[string]string{"quality": "low"})

	rec := f.do(t, http.MethodPost, "/api/jobs", body, contentType)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	req := f.jobs.last(t)
	if !req.RemoveSource || req.QualityPreset != "low" {
		t.Fatalf("unexpected request %+v", req)
	}
	if filepath.Dir(req.Source) != f.cfg.Paths.UploadDir {
		t.Fatalf("upload stored outside upload dir: %s", req.Source)
	}
	if !strings.HasSuffix(req.Source, "_weekly_sync.mp3") {
		t.Fatalf("unexpected upload name %s", req.Source)
	}
	data, err := os.ReadFile(req.Source)
	if err != nil || string(data) != "audio" {
		t.Fatalf("upload content = %q, %v", data, err)
	}
}

func TestSubmitUploadWithoutFileName(t *testing.T) {
	f := newFixture(t)
	body, contentType := multipartBody(t, "", []byte("audio"), nil)

	rec := f.do(t, http.MethodPost, "/api/jobs", body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestOwnerHeaderRequired(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthToken(t *testing.T) {
	f := newFixture(t, testsupport.WithAPIToken("secret"))
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			req.Header.Set(api.OwnerHeader, owner)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestListAndHide(t *testing.T) {
	f := newFixture(t)
	first := testsupport.NewJob(t, f.store, owner, "/tmp/a.wav")
	testsupport.NewJob(t, f.store, owner, "/tmp/b.wav")
	testsupport.NewJob(t, f.store, "bob", "/tmp/c.wav")

	list := decode[api.JobListResponse](t, f.do(t, http.MethodGet, "/api/jobs", nil, ""))
	if len(list.Jobs) != 2 {
		t.Fatalf("expected 2 jobs for owner, got %d", len(list.Jobs))
	}
	if list.Jobs[0].Preview != "Processing..." {
		t.Fatalf("unexpected preview %q", list.Jobs[0].Preview)
	}

	rec := f.do(t, http.MethodDelete, "/api/jobs/"+first.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("hide status = %d", rec.Code)
	}
	rec = f.do(t, http.MethodDelete, "/api/jobs/"+first.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second hide status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/api/jobs", nil, "")
	if got := decode[api.HideResponse](t, rec); got.Hidden != 1 {
		t.Fatalf("hide all = %d, want 1", got.Hidden)
	}
	list = decode[api.JobListResponse](t, f.do(t, http.MethodGet, "/api/jobs", nil, ""))
	if len(list.Jobs) != 0 {
		t.Fatalf("expected empty listing, got %d", len(list.Jobs))
	}

	// Hidden jobs stay addressable by id.
	rec = f.do(t, http.MethodGet, "/api/jobs/"+first.ID+"/status", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status of hidden job = %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	job := testsupport.NewJob(t, f.store, owner, "/tmp/a.wav")
	ctx := context.Background()
	if err := f.store.SetStatus(ctx, job.ID, ledger.StatusFailed, &ledger.ErrorDetail{Stage: "critical_error", Message: "disk full"}); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	resp := decode[api.StatusResponse](t, f.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/status", nil, ""))
	if resp.Status != "failed" || resp.Error != "disk full" || resp.Result != nil {
		t.Fatalf("unexpected status %+v", resp)
	}

	rec := f.do(t, http.MethodGet, "/api/jobs/missing/status", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, testsupport.WithStubbedBinaries())
	rec := f.do(t, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[api.HealthResponse](t, rec)
	if resp.Status != "ok" || !resp.LedgerOK || len(resp.Dependencies) != 3 {
		t.Fatalf("unexpected health %+v", resp)
	}
}

func TestHealthDegradedWhenBinaryMissing(t *testing.T) {
	f := newFixture(t)
	f.cfg.Audio.FFmpegBinary = "talknote-missing-ffmpeg"
	rec := f.do(t, http.MethodGet, "/api/health", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d", rec.Code)
	}
	if resp := decode[api.HealthResponse](t, rec); resp.Status != "degraded" {
		t.Fatalf("unexpected health status %q", resp.Status)
	}
}

func TestLogsFilterByJob(t *testing.T) {
	f := newFixture(t)
	f.hub.Publish(logging.LogEvent{Message: "one", JobID: "job-1"})
	f.hub.Publish(logging.LogEvent{Message: "two", JobID: "job-2"})

	resp := decode[api.LogStreamResponse](t, f.do(t, http.MethodGet, "/api/logs?job=job-2", nil, ""))
	if len(resp.Events) != 1 || resp.Events[0].Message != "two" {
		t.Fatalf("unexpected events %+v", resp.Events)
	}
	if resp.Next == 0 {
		t.Fatal("expected a next cursor")
	}
}

func TestStreamPushesUntilTerminal(t *testing.T) {
	f := newFixture(t)
	job := testsupport.NewJob(t, f.store, owner, "/tmp/a.wav")
	srv := httptest.NewServer(f.server.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/jobs/" + job.ID + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{api.OwnerHeader: []string{owner}})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first api.StatusMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first message: %v", err)
	}
	if first.Status != "pending" || first.JobID != job.ID {
		t.Fatalf("unexpected first message %+v", first)
	}

	if err := f.store.SetStatus(context.Background(), job.ID, ledger.StatusFailed, &ledger.ErrorDetail{Stage: "pipeline_error", Message: "boom"}); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	var last api.StatusMessage
	if err := conn.ReadJSON(&last); err != nil {
		t.Fatalf("read terminal message: %v", err)
	}
	if last.Status != "failed" || last.Error != "boom" {
		t.Fatalf("unexpected terminal message %+v", last)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}

func TestStreamUnknownJob(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/jobs/unknown/stream", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
