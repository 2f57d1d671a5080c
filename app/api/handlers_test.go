package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aiverse-labs/content-hook/app/content"
	"github.com/aiverse-labs/content-hook/app/database"
)

// MockContentRepository implements a minimal in-memory store for handler tests
type MockContentRepository struct {
	items   []database.ContentItem
	byUUID  map[string]*database.ContentItem
	repoErr error
}

var _ database.ContentRepository = (*MockContentRepository)(nil)

func NewMockContentRepository() *MockContentRepository {
	return &MockContentRepository{byUUID: make(map[string]*database.ContentItem)}
}

func (m *MockContentRepository) GetByUUID(uuid string) (*database.ContentItem, error) {
	return m.byUUID[uuid], m.repoErr
}

func (m *MockContentRepository) GetRecent(limit int) ([]database.ContentItem, error) {
	if m.repoErr != nil {
		return nil, m.repoErr
	}
	if limit > len(m.items) {
		limit = len(m.items)
	}
	return m.items[:limit], nil
}

func (m *MockContentRepository) GetStuck(before time.Time) ([]database.ContentItem, error) {
	return nil, nil
}

func (m *MockContentRepository) GetCount() (int, error) {
	return len(m.items), nil
}

func (m *MockContentRepository) GetStatusCounts() (map[string]int, error) {
	return map[string]int{}, nil
}

func (m *MockContentRepository) InsertIfAbsent(item *database.ContentItem) (bool, error) {
	return true, nil
}

func (m *MockContentRepository) AdvancePhase(uuid string, phase string, at time.Time) error {
	return nil
}

// MockNotificationRepository is a stub for handler tests
type MockNotificationRepository struct {
	notifications []database.Notification
}

var _ database.NotificationRepository = (*MockNotificationRepository)(nil)

func (m *MockNotificationRepository) Insert(n *database.Notification) error {
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *MockNotificationRepository) GetRecent(limit int) ([]database.Notification, error) {
	return m.notifications, nil
}

func (m *MockNotificationRepository) GetCount() (int, error) {
	return len(m.notifications), nil
}

// MockIngestor records ingestion calls
type MockIngestor struct {
	calls     int
	created   bool
	ingestErr error
}

var _ IngestorInterface = (*MockIngestor)(nil)

func (m *MockIngestor) Ingest(env *content.Envelope) (*database.ContentItem, bool, error) {
	m.calls++
	if m.ingestErr != nil {
		return nil, false, m.ingestErr
	}
	return &database.ContentItem{ID: "db-id-1", UUID: env.UUID}, m.created, nil
}

// MockHub is a stub websocket hub
type MockHub struct {
	clients int
}

var _ HubInterface = (*MockHub)(nil)

func (m *MockHub) HandleWS(w http.ResponseWriter, r *http.Request) {}

func (m *MockHub) ClientCount() int {
	return m.clients
}

func newTestRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/content", handler.PostContentWebhook)
	r.GET("/content", handler.GetContent)
	r.GET("/content/:uuid", handler.GetContentByUUID)
	r.GET("/notifications", handler.GetNotifications)
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	return r
}

func webhookBody() string {
	return `{
		"uuid": "evt-1",
		"timestamp": "2026-08-29 12-00-00",
		"eventType": "post_created",
		"authorId": "author-1",
		"payload": {"text": "hello"}
	}`
}

func TestPostContentWebhook_NewIngestion(t *testing.T) {
	ingestor := &MockIngestor{created: true}
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, ingestor, &MockHub{})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhooks/content", strings.NewReader(webhookBody()))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["id"] != "db-id-1" {
		t.Errorf("Expected id 'db-id-1', got %v", resp["id"])
	}
}

func TestPostContentWebhook_DuplicateReturns200(t *testing.T) {
	ingestor := &MockIngestor{created: false}
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, ingestor, &MockHub{})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhooks/content", strings.NewReader(webhookBody()))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for duplicate, got %d", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["id"] != "db-id-1" {
		t.Errorf("Expected the existing record's id, got %v", resp["id"])
	}
}

func TestPostContentWebhook_ValidationFailure(t *testing.T) {
	ingestor := &MockIngestor{}
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, ingestor, &MockHub{})
	router := newTestRouter(handler)

	body := `{"timestamp": "2026-08-29 12-00-00", "eventType": "post_created", "authorId": "a", "payload": {}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhooks/content", strings.NewReader(body))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if ingestor.calls != 0 {
		t.Error("Validation failure must not reach the ingestor")
	}

	var resp struct {
		Error   string               `json:"error"`
		Details []content.FieldError `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp.Details) != 1 || resp.Details[0].Field != "uuid" {
		t.Errorf("Expected a uuid field error, got %v", resp.Details)
	}
}

func TestPostContentWebhook_MalformedJSON(t *testing.T) {
	ingestor := &MockIngestor{}
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, ingestor, &MockHub{})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhooks/content", strings.NewReader(`{not json`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if ingestor.calls != 0 {
		t.Error("Malformed JSON must not reach the ingestor")
	}
}

func TestPostContentWebhook_IngestErrorReturns500(t *testing.T) {
	ingestor := &MockIngestor{ingestErr: fmt.Errorf("database gone")}
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, ingestor, &MockHub{})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhooks/content", strings.NewReader(webhookBody()))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
}

func TestGetContent_ReturnsRecentItems(t *testing.T) {
	repo := NewMockContentRepository()
	repo.items = []database.ContentItem{
		{ID: "1", UUID: "evt-1", Status: "publish_complete"},
		{ID: "2", UUID: "evt-2", Status: "ingested"},
	}
	handler := NewHandler(repo, &MockNotificationRepository{}, &MockIngestor{}, &MockHub{})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/content", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Items []database.ContentItem `json:"items"`
		Count int                    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Expected 2 items, got %d", resp.Count)
	}
}

func TestGetContentByUUID_NotFound(t *testing.T) {
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, &MockIngestor{}, &MockHub{})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/content/nope", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	handler := NewHandler(NewMockContentRepository(), &MockNotificationRepository{}, &MockIngestor{}, &MockHub{clients: 3})
	router := newTestRouter(handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["connected_clients"] != float64(3) {
		t.Errorf("Expected 3 connected clients, got %v", resp["connected_clients"])
	}
}

func TestParseLimit(t *testing.T) {
	cases := map[string]int{
		"":    defaultPageLimit,
		"10":  10,
		"0":   defaultPageLimit,
		"-5":  defaultPageLimit,
		"999": maxPageLimit,
		"abc": defaultPageLimit,
	}

	for raw, want := range cases {
		if got := parseLimit(raw); got != want {
			t.Errorf("parseLimit(%q): expected %d, got %d", raw, want, got)
		}
	}
}
