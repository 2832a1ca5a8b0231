package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/pharma-pulse/app/feed"
	"github.com/lysyi3m/pharma-pulse/app/query"
	"github.com/lysyi3m/pharma-pulse/app/tasks"
)

type fakeEngine struct {
	snapshots map[feed.Category][]feed.Snapshot
	statuses  []query.SourceStatus
	topics    []query.Topic

	searchQuery    string
	searchCategory feed.Category
	trendingHours  int
	trendingLimit  int
}

func (e *fakeEngine) GetAll(ctx context.Context) (map[feed.Category][]feed.Snapshot, error) {
	out := make(map[feed.Category][]feed.Snapshot)
	for _, c := range feed.Categories() {
		out[c] = append([]feed.Snapshot{}, e.snapshots[c]...)
	}
	return out, nil
}

func (e *fakeEngine) GetCategory(ctx context.Context, category feed.Category) ([]feed.Snapshot, error) {
	return e.snapshots[category], nil
}

func (e *fakeEngine) Search(ctx context.Context, q string, category feed.Category) ([]feed.Item, error) {
	e.searchQuery = q
	e.searchCategory = category

	var out []feed.Item
	for _, snaps := range e.snapshots {
		for _, s := range snaps {
			for _, item := range s.Items {
				if strings.Contains(strings.ToLower(item.Title), strings.ToLower(q)) {
					out = append(out, item)
				}
			}
		}
	}
	return out, nil
}

func (e *fakeEngine) Trending(ctx context.Context, windowHours, limit int) ([]query.Topic, error) {
	e.trendingHours = windowHours
	e.trendingLimit = limit
	return e.topics, nil
}

func (e *fakeEngine) FeedStatus() []query.SourceStatus {
	return e.statuses
}

type fakeScheduler struct {
	result tasks.RefreshResult
	err    error
	calls  int64
}

func (s *fakeScheduler) Start() {}
func (s *fakeScheduler) Stop()  {}

func (s *fakeScheduler) RefreshAll(ctx context.Context) (tasks.RefreshResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *fakeScheduler) RefreshSource(ctx context.Context, src feed.Source) (tasks.Outcome, error) {
	return tasks.OutcomeSuccess, nil
}

func (s *fakeScheduler) Stats() tasks.Stats {
	return tasks.Stats{CyclesRun: s.calls}
}

func setupTestServer(t *testing.T) (*gin.Engine, *fakeEngine, *fakeScheduler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry, err := feed.NewRegistry([]feed.Source{
		{Name: "FDA Recalls", URL: "https://example.com/fda.xml", Category: feed.CategoryRegulatory, Description: "Recalls"},
		{Name: "Biotech Wire", URL: "https://example.com/bio.xml", Category: feed.CategoryFinancial, Description: "Deals"},
	})
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}

	older := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	engine := &fakeEngine{
		snapshots: map[feed.Category][]feed.Snapshot{
			feed.CategoryRegulatory: {{
				Source:      "FDA Recalls",
				Category:    feed.CategoryRegulatory,
				LastUpdated: newer,
				Items: []feed.Item{
					{Title: "Older recall notice", Link: "https://example.com/1", PublishedAt: older, Category: feed.CategoryRegulatory, Source: "FDA Recalls", Relevance: feed.RelevanceHigh},
					{Title: "Newer recall notice", Link: "https://example.com/2", PublishedAt: newer, Category: feed.CategoryRegulatory, Source: "FDA Recalls", Relevance: feed.RelevanceHigh},
				},
			}},
		},
		statuses: []query.SourceStatus{
			{Name: "FDA Recalls", Status: query.StatusActive, ItemCount: 2},
			{Name: "Biotech Wire", Status: query.StatusInactive},
		},
		topics: []query.Topic{{Keyword: "recall", Count: 2, Relevance: feed.RelevanceHigh}},
	}
	scheduler := &fakeScheduler{result: tasks.RefreshResult{Total: 2, Successful: 1, Failed: 1}}

	cache := feed.NewSnapshotCache(feed.DefaultCacheTTL)
	handler := NewHandler(registry, cache, engine, feed.NewGenerator("https://pulse.example.com", "test"), scheduler, "test")

	return NewServer(handler), engine, scheduler
}

func perform(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	r, _, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decode(t, w)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["sources"] != float64(2) {
		t.Errorf("Expected 2 sources, got %v", body["sources"])
	}
	if _, ok := body["scheduler"]; !ok {
		t.Error("Expected scheduler stats in health response")
	}
}

func TestGetAllFeeds(t *testing.T) {
	r, _, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/api/feeds")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	body := decode(t, w)
	feeds, ok := body["feeds"].(map[string]any)
	if !ok {
		t.Fatalf("Expected feeds object, got %T", body["feeds"])
	}
	for _, c := range feed.Categories() {
		if _, ok := feeds[string(c)]; !ok {
			t.Errorf("Expected key %q in feeds", c)
		}
	}
}

func TestGetFeedsByCategory(t *testing.T) {
	r, _, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/api/feeds/regulatory")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["category"] != "regulatory" {
		t.Errorf("Expected category regulatory, got %v", body["category"])
	}

	w = perform(r, http.MethodGet, "/api/feeds/cosmetics")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown category, got %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	r, engine, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/api/search?q=newer&category=regulatory")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["total"] != float64(1) {
		t.Errorf("Expected 1 result, got %v", body["total"])
	}
	if engine.searchQuery != "newer" || engine.searchCategory != feed.CategoryRegulatory {
		t.Errorf("Unexpected search arguments: %q %q", engine.searchQuery, engine.searchCategory)
	}

	perform(r, http.MethodGet, "/api/search?q=recall")
	if engine.searchCategory != "" {
		t.Errorf("Expected empty category to search everything, got %q", engine.searchCategory)
	}
}

func TestSearchValidation(t *testing.T) {
	r, _, _ := setupTestServer(t)

	tests := []struct {
		name   string
		target string
	}{
		{"missing query", "/api/search"},
		{"empty query", "/api/search?q="},
		{"unknown category", "/api/search?q=recall&category=cosmetics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, tt.target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestTrending(t *testing.T) {
	r, engine, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/api/trending")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if engine.trendingHours != query.DefaultTrendingWindowHours || engine.trendingLimit != query.DefaultTrendingLimit {
		t.Errorf("Expected defaults, got hours=%d limit=%d", engine.trendingHours, engine.trendingLimit)
	}

	perform(r, http.MethodGet, "/api/trending?hours=6&limit=3")
	if engine.trendingHours != 6 || engine.trendingLimit != 3 {
		t.Errorf("Expected hours=6 limit=3, got hours=%d limit=%d", engine.trendingHours, engine.trendingLimit)
	}

	for _, target := range []string{"/api/trending?hours=0", "/api/trending?limit=-1", "/api/trending?hours=abc"} {
		w := perform(r, http.MethodGet, target)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestStatus(t *testing.T) {
	r, _, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["total"] != float64(2) || body["active"] != float64(1) {
		t.Errorf("Expected total=2 active=1, got total=%v active=%v", body["total"], body["active"])
	}
}

func TestRefresh(t *testing.T) {
	r, _, scheduler := setupTestServer(t)

	w := perform(r, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["total"] != float64(2) || body["successful"] != float64(1) {
		t.Errorf("Unexpected refresh result: %v", body)
	}

	scheduler.err = tasks.ErrRefreshInProgress
	w = perform(r, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 while refreshing, got %d", w.Code)
	}
}

func TestGetRSS(t *testing.T) {
	r, _, _ := setupTestServer(t)

	w := perform(r, http.MethodGet, "/feeds/regulatory")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Expected XML content type, got %q", ct)
	}
	if w.Header().Get("X-Feed-Items") != "2" {
		t.Errorf("Expected X-Feed-Items 2, got %q", w.Header().Get("X-Feed-Items"))
	}

	body := w.Body.String()
	newer := strings.Index(body, "Newer recall notice")
	older := strings.Index(body, "Older recall notice")
	if newer < 0 || older < 0 || newer > older {
		t.Errorf("Expected items newest first, got:\n%s", body)
	}

	w = perform(r, http.MethodGet, "/feeds/cosmetics")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown category, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _, _ := setupTestServer(t)

	w := perform(r, http.MethodOptions, "/api/feeds")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
