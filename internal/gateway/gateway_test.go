package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type capturedRequest struct {
	Method string
	URI    string
	Header http.Header
	Body   string
}

// fakeServer stands in for the server tier and records what it receives.
type fakeServer struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
	header   map[string]string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{Method: r.Method, URI: r.URL.RequestURI(), Header: r.Header.Clone(), Body: string(data)})
	status, body := f.status, f.body
	f.mu.Unlock()

	for k, v := range f.header {
		w.Header().Set(k, v)
	}
	if body != "" && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeServer) calls() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func newGateway(t *testing.T, upstream *fakeServer, cfg config.GatewayConfig, limiter domain.RateLimitStore) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	logger := zerolog.New(io.Discard)
	cfg.ServerURL = ts.URL
	return NewServer(cfg, NewClient(ts.URL, 5*time.Second), limiter, &logger).Handler()
}

func send(h http.Handler, method, path string, userID string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(models.HeaderSharerUserID, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func futureBooking(start, end time.Time) string {
	return fmt.Sprintf(`{"itemId":1,"start":%q,"end":%q}`, models.FormatTime(start), models.FormatTime(end))
}

func TestGateway_RelaysValidRequests(t *testing.T) {
	upstream := &fakeServer{status: http.StatusCreated, body: `{"id":1,"name":"Ann","email":"ann@example.com"}`}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	body := `{"name":"Ann","email":"ann@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "trace-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, upstream.body, rec.Body.String())
	assert.Equal(t, "trace-1", rec.Header().Get("X-Request-Id"))

	calls := upstream.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/users", calls[0].URI)
	assert.Equal(t, body, calls[0].Body)
	assert.Equal(t, "trace-1", calls[0].Header.Get("X-Request-Id"))
}

func TestGateway_RelaysErrorsUnchanged(t *testing.T) {
	upstream := &fakeServer{status: http.StatusForbidden, body: `{"error":"user 3 is not the owner of item 1"}`}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	rec := send(h, http.MethodPatch, "/items/1", "3", `{"name":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "user 3 is not the owner of item 1", gjson.Get(rec.Body.String(), "error").String())

	calls := upstream.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "3", calls[0].Header.Get(models.HeaderSharerUserID))
}

func TestGateway_ForwardsQueryString(t *testing.T) {
	upstream := &fakeServer{body: `[]`}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	rec := send(h, http.MethodGet, "/items/search?text=drill", "1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(h, http.MethodGet, "/bookings/owner?state=FUTURE", "1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(h, http.MethodPatch, "/bookings/5?approved=false", "1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	calls := upstream.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/items/search?text=drill", calls[0].URI)
	assert.Equal(t, "/bookings/owner?state=FUTURE", calls[1].URI)
	assert.Equal(t, "/bookings/5?approved=false", calls[2].URI)
}

func TestGateway_EmptyResponseBody(t *testing.T) {
	upstream := &fakeServer{}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	rec := send(h, http.MethodDelete, "/users/4", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGateway_RelaysExportHeaders(t *testing.T) {
	upstream := &fakeServer{
		body: "xlsx-bytes",
		header: map[string]string{
			"Content-Type":        "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"Content-Disposition": `attachment; filename="bookings.xlsx"`,
		},
	}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	rec := send(h, http.MethodGet, "/bookings/owner/export?state=ALL", "1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings.xlsx")
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
}

func TestGateway_Validation(t *testing.T) {
	tomorrow := time.Now().UTC().Add(24 * time.Hour)

	tests := []struct {
		name    string
		method  string
		path    string
		userID  string
		body    string
		message string
	}{
		{"UserBlankName", http.MethodPost, "/users", "", `{"name":"  ","email":"ann@example.com"}`, "name must not be blank"},
		{"UserBadEmail", http.MethodPost, "/users", "", `{"name":"Ann","email":"not-an-email"}`, "email must be a valid email address"},
		{"UserMissingEmail", http.MethodPost, "/users", "", `{"name":"Ann"}`, "email is required"},
		{"UserPatchBadEmail", http.MethodPatch, "/users/1", "", `{"email":"broken"}`, "email must be a valid email address"},
		{"UserBadID", http.MethodGet, "/users/zero", "", "", "invalid userId"},
		{"ItemMissingAvailable", http.MethodPost, "/items", "1", `{"name":"Drill","description":"drill"}`, "available is required"},
		{"ItemBlankDescription", http.MethodPost, "/items", "1", `{"name":"Drill","description":"","available":true}`, "description must not be blank"},
		{"ItemMissingHeader", http.MethodPost, "/items", "", `{"name":"Drill","description":"drill","available":true}`, "missing X-Sharer-User-Id header"},
		{"ItemBadHeader", http.MethodGet, "/items", "abc", "", "invalid X-Sharer-User-Id header"},
		{"SearchWithoutText", http.MethodGet, "/items/search", "1", "", "missing query parameter text"},
		{"CommentBlank", http.MethodPost, "/items/1/comment", "1", `{"text":" "}`, "text must not be blank"},
		{"BookingEndBeforeStart", http.MethodPost, "/bookings", "1", futureBooking(tomorrow.Add(48*time.Hour), tomorrow.Add(24*time.Hour)), "end must be after start"},
		{"BookingStartInPast", http.MethodPost, "/bookings", "1", futureBooking(time.Now().Add(-time.Hour), tomorrow), "start must be in the future"},
		{"BookingMissingItem", http.MethodPost, "/bookings", "1", fmt.Sprintf(`{"start":%q,"end":%q}`, models.FormatTime(tomorrow), models.FormatTime(tomorrow.Add(time.Hour))), "itemId is required"},
		{"BookingBadTimestamp", http.MethodPost, "/bookings", "1", `{"itemId":1,"start":"soon","end":"later"}`, "invalid request body"},
		{"BookingUnknownState", http.MethodGet, "/bookings?state=UNSUPPORTED_STATUS", "1", "", "Unknown state: UNSUPPORTED_STATUS"},
		{"BookingOwnerUnknownState", http.MethodGet, "/bookings/owner?state=soon", "1", "", "Unknown state: soon"},
		{"BookingApprovedMissing", http.MethodPatch, "/bookings/1", "1", "", "approved must be true or false"},
		{"RequestBlank", http.MethodPost, "/requests", "1", `{"description":""}`, "description must not be blank"},
		{"RequestTooLong", http.MethodPost, "/requests", "1", fmt.Sprintf(`{"description":%q}`, strings.Repeat("a", 513)), "description must be at most 512 characters"},
		{"MalformedJSON", http.MethodPost, "/requests", "1", `{"description":`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := &fakeServer{}
			h := newGateway(t, upstream, config.GatewayConfig{}, nil)

			rec := send(h, tt.method, tt.path, tt.userID, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, gjson.Get(rec.Body.String(), "error").String())
			assert.Empty(t, upstream.calls())
		})
	}
}

func TestGateway_ValidBookingForwarded(t *testing.T) {
	upstream := &fakeServer{status: http.StatusCreated, body: `{"id":1,"status":"WAITING"}`}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	body := futureBooking(tomorrow, tomorrow.Add(24*time.Hour))
	rec := send(h, http.MethodPost, "/bookings", "2", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	calls := upstream.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, body, calls[0].Body)
}

func TestGateway_UpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	logger := zerolog.New(io.Discard)
	h := NewServer(config.GatewayConfig{ServerURL: url}, NewClient(url, time.Second), nil, &logger).Handler()

	rec := send(h, http.MethodGet, "/users/1", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream unavailable", gjson.Get(rec.Body.String(), "error").String())
}

func TestGateway_Health(t *testing.T) {
	upstream := &fakeServer{}
	h := newGateway(t, upstream, config.GatewayConfig{}, nil)

	rec := send(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, upstream.calls())
}

func TestGateway_RateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := repository.NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	limiter := repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(client), repository.NewMemoryRateLimiter(), &logger)

	upstream := &fakeServer{body: `[]`}
	cfg := config.GatewayConfig{RateLimit: config.GatewayRateLimitConfig{Requests: 2, WindowSeconds: 60}}
	h := newGateway(t, upstream, cfg, limiter)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, send(h, http.MethodGet, "/requests", "7", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Len(t, upstream.calls(), 2)

	// Another user has its own window.
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "8", "").Code)

	// Redis outage falls back to the in-memory store.
	mr.Close()
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "9", "").Code)
	assert.True(t, limiter.Degraded())
}

func TestGateway_RateLimitMalformedSharerUsesClientBudget(t *testing.T) {
	upstream := &fakeServer{body: `[]`}
	cfg := config.GatewayConfig{RateLimit: config.GatewayRateLimitConfig{Requests: 2, WindowSeconds: 60}}
	limiter := repository.NewMemoryRateLimiter()
	h := newGateway(t, upstream, cfg, limiter)

	codes := make([]int, 0, 3)
	for _, header := range []string{"a", "b", "-1"} {
		codes = append(codes, send(h, http.MethodGet, "/requests", header, "").Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodGet, "/requests/all", "", "").Code)
	assert.Empty(t, upstream.calls())

	// A valid id keeps its own window, whatever its spelling.
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "7", "").Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "007", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodGet, "/requests", "7", "").Code)
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, fmt.Errorf("store unreachable")
}

func TestGateway_RateLimitStoreErrorLetsRequestThrough(t *testing.T) {
	upstream := &fakeServer{body: `[]`}
	cfg := config.GatewayConfig{RateLimit: config.GatewayRateLimitConfig{Requests: 1, WindowSeconds: 60}}
	h := newGateway(t, upstream, cfg, failingStore{})

	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "1", "").Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/requests", "1", "").Code)
}
