package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nepaledu/edusearch/internal/config"
	"github.com/nepaledu/edusearch/internal/history"
	"github.com/nepaledu/edusearch/internal/metrics"
	"github.com/nepaledu/edusearch/internal/models"
	"github.com/nepaledu/edusearch/internal/notify"
	"github.com/nepaledu/edusearch/internal/search"
	"github.com/nepaledu/edusearch/internal/storage"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

type testServer struct {
	kv      *storage.MemoryKV
	history *history.Store
	srv     *Server
	handler http.Handler
}

func newTestServer(t *testing.T, watch WatchService) *testServer {
	t.Helper()
	kv := storage.NewMemoryKV()
	store := storage.NewEntityStore(kv)
	ctx := context.Background()
	_ = store.ReplaceAll(ctx, models.KindSubject, []models.Entity{
		&models.Subject{Common: models.Common{ID: "1"}, Name: "Mathematics"},
	})
	_ = store.ReplaceAll(ctx, models.KindChapter, []models.Entity{
		&models.Chapter{Common: models.Common{ID: "1", Subject: "Mathematics"}, Name: "Algebra"},
	})
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	cfg.Storage.DatabasePath = ""
	cfg.Storage.BadgerPath = ""
	hist := history.New(kv)
	engine := search.NewEngine(store, &cfg.Search, search.WithMetrics(metrics.Prometheus{}))
	srv := NewServer(engine, hist, store, cfg, zap.NewNop(), watch)
	return &testServer{kv: kv, history: hist, srv: srv, handler: srv.Router()}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatal(err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHandleSearch(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodPost, "/api/v1/search", models.SearchRequest{Query: "mathematics"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	decode(t, rec, &resp)
	if resp.Total != 2 || resp.Results[0].Kind != models.KindSubject {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Results[0].Relevance < 13 {
		t.Errorf("subject relevance = %d", resp.Results[0].Relevance)
	}

	entries, _ := ts.history.History(context.Background())
	if len(entries) != 1 || entries[0].Query != "mathematics" {
		t.Errorf("search should be recorded, got %+v", entries)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/search", "{")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchRequest{Query: " "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty search: got %d", rec.Code)
	}
	var out map[string]string
	decode(t, rec, &out)
	if out["error"] != "Please enter a search query or select filters" {
		t.Errorf("error message = %q", out["error"])
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchRequest{Filters: models.Filters{DateFrom: "someday"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad filter: got %d", rec.Code)
	}
	out = nil
	decode(t, rec, &out)
	if strings.HasPrefix(out["error"], "Search failed") || !strings.Contains(out["error"], "dateFrom") {
		t.Errorf("bad filter message = %q", out["error"])
	}

	_ = ts.kv.Put(context.Background(), "videos", []byte(`[{`))
	rec = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchRequest{Query: "algebra"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("malformed storage: got %d", rec.Code)
	}
	out = nil
	decode(t, rec, &out)
	if !strings.HasPrefix(out["error"], "Search failed: ") {
		t.Errorf("error message = %q", out["error"])
	}
}

func TestHandleSuggest(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/v1/suggest?q=alg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var out struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	decode(t, rec, &out)
	if len(out.Suggestions) != 1 || out.Suggestions[0].Text != "Algebra" || out.Suggestions[0].Type != "Chapter" {
		t.Errorf("unexpected suggestions: %+v", out.Suggestions)
	}
}

func TestHandleHistory(t *testing.T) {
	ts := newTestServer(t, nil)
	_ = ts.history.Record(context.Background(), "physics")

	rec := ts.do(t, http.MethodGet, "/api/v1/history", nil)
	var out struct {
		History []models.HistoryEntry `json:"history"`
	}
	decode(t, rec, &out)
	if len(out.History) != 1 || out.History[0].Query != "physics" {
		t.Errorf("unexpected history: %+v", out.History)
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/history", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("clear: got %d", rec.Code)
	}
	entries, _ := ts.history.History(context.Background())
	if len(entries) != 0 {
		t.Errorf("history should be empty, got %+v", entries)
	}
}

func TestHandleSaved(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/saved", saveRequest{Name: "Algebra", Query: "algebra"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d %s", rec.Code, rec.Body.String())
	}
	var saved models.SavedSearch
	decode(t, rec, &saved)
	if saved.ID == "" {
		t.Fatal("expected an id")
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/saved", saveRequest{Query: "no name"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/saved", nil)
	var list struct {
		Saved []models.SavedSearch `json:"saved"`
	}
	decode(t, rec, &list)
	if len(list.Saved) != 1 {
		t.Errorf("expected 1 saved search, got %d", len(list.Saved))
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/saved/"+saved.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get: got %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/saved/"+saved.ID+"/run", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("run: got %d", rec.Code)
	}
	var run struct {
		Found   bool             `json:"found"`
		Total   int              `json:"total"`
		Results []*models.Result `json:"results"`
	}
	decode(t, rec, &run)
	if !run.Found || run.Total != 1 || run.Results[0].Kind != models.KindChapter {
		t.Errorf("unexpected run response: %+v", run)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/saved/missing/run", nil)
	run.Found, run.Total, run.Results = true, -1, nil
	decode(t, rec, &run)
	if rec.Code != http.StatusOK || run.Found || run.Total != 0 || run.Results == nil {
		t.Errorf("unknown id should be a quiet no-op, got %d %+v", rec.Code, run)
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/saved/"+saved.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete: got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/api/v1/saved/"+saved.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodDelete, "/api/v1/saved/"+saved.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete twice: got %d", rec.Code)
	}
}

func TestHandleEntities(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPut, "/api/v1/entities/videos", `[{"id":1,"title":"Fractions","duration":"4:10"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: got %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/entities/videos", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d", rec.Code)
	}
	var videos []map[string]interface{}
	decode(t, rec, &videos)
	if len(videos) != 1 || videos[0]["title"] != "Fractions" || videos[0]["id"] != float64(1) {
		t.Errorf("unexpected videos: %+v", videos)
	}

	rec = ts.do(t, http.MethodPut, "/api/v1/entities/videos", `[{"id":2}]`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid entity: got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/api/v1/entities/podcasts", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown kind: got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t, &mockWatchService{dirs: []string{"/srv/content"}})
	rec := ts.do(t, http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var out struct {
		Entities map[string]int         `json:"entities"`
		Config   map[string]interface{} `json:"config"`
	}
	decode(t, rec, &out)
	if out.Entities["subjects"] != 1 || out.Entities["chapters"] != 1 || out.Entities["videos"] != 0 {
		t.Errorf("unexpected counts: %+v", out.Entities)
	}
	if out.Config["storage_backend"] != "memory" {
		t.Errorf("unexpected config: %+v", out.Config)
	}
}

func TestHandleWatchDirectories(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/api/v1/watch/directories", nil)
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("without watcher: got %d", rec.Code)
	}

	ts = newTestServer(t, &mockWatchService{dirs: []string{"/srv/content"}})
	rec = ts.do(t, http.MethodGet, "/api/v1/watch/directories", nil)
	var out struct {
		Directories []string `json:"directories"`
	}
	decode(t, rec, &out)
	if len(out.Directories) != 1 || out.Directories[0] != "/srv/content" {
		t.Errorf("unexpected directories: %v", out.Directories)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health: got %d", rec.Code)
	}
	_ = ts.do(t, http.MethodPost, "/api/v1/search", models.SearchRequest{Query: "algebra"})
	rec = ts.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "edusearch_searches_total") {
		t.Errorf("metrics should expose search counters, got %d", rec.Code)
	}
}

func TestHandleNotifications(t *testing.T) {
	ts := newTestServer(t, nil)

	if rec := ts.do(t, http.MethodDelete, "/api/v1/notifications/1", nil); rec.Code != http.StatusNotImplemented {
		t.Errorf("dismiss without tray: expected 501, got %d", rec.Code)
	}
	rec := ts.do(t, http.MethodGet, "/api/v1/notifications", nil)
	var empty struct {
		Notifications []notify.Notification `json:"notifications"`
	}
	decode(t, rec, &empty)
	if empty.Notifications == nil || len(empty.Notifications) != 0 {
		t.Errorf("expected empty list, got %+v", empty.Notifications)
	}

	tray := notify.NewTray(&config.NotifyConfig{DismissMillis: 60000, ErrorDismissMillis: 60000})
	defer tray.Close()
	ts.srv.SetNotices(tray)
	tray.Notify(notify.Success, "Imported questions.json")
	tray.Notify(notify.Error, "Import of bad.json failed")

	var out struct {
		Notifications []struct {
			ID      uint64 `json:"id"`
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"notifications"`
	}
	decode(t, ts.do(t, http.MethodGet, "/api/v1/notifications", nil), &out)
	if len(out.Notifications) != 2 || out.Notifications[1].Level != notify.Error.String() {
		t.Fatalf("unexpected notifications: %+v", out.Notifications)
	}

	if rec := ts.do(t, http.MethodDelete, "/api/v1/notifications/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
	id := out.Notifications[0].ID
	if rec := ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/notifications/%d", id), nil); rec.Code != http.StatusNoContent {
		t.Errorf("dismiss: expected 204, got %d", rec.Code)
	}
	if got := tray.Active(); len(got) != 1 || got[0].Message != "Import of bad.json failed" {
		t.Errorf("after dismiss: %+v", got)
	}
}

func TestHandleSearchGet(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/search?q=mathematics&contentType=chapters&unknown=x", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	decode(t, rec, &resp)
	if resp.Total != 1 || resp.Results[0].Kind != models.KindChapter || resp.Filters.ContentType != "chapters" {
		t.Errorf("unexpected response: %+v", resp)
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/search?contentType=lessons", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown content type: got %d", rec.Code)
	}
	rec = ts.do(t, http.MethodGet, "/api/v1/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty search: got %d", rec.Code)
	}
}
