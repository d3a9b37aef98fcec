package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/export"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	db      *database.DB
	handler http.Handler
}

func newTestEnv(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zerolog.New(io.Discard)
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "shareit.db"),
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus(&logger)
	svc := Services{
		Users:    service.NewUserService(db, &logger),
		Items:    service.NewItemService(db, bus, &logger),
		Bookings: service.NewBookingService(db, bus, &logger),
		Requests: service.NewRequestService(db, &logger),
	}
	return &testEnv{db: db, handler: NewHTTPServer(cfg, svc, db, &logger).Handler()}
}

// do sends a request; userID 0 leaves X-Sharer-User-Id unset.
func (e *testEnv) do(t *testing.T, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(models.HeaderSharerUserID, fmt.Sprint(userID))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createUser(t *testing.T, name, email string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users", 0, fmt.Sprintf(`{"name":%q,"email":%q}`, name, email))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return gjson.Get(rec.Body.String(), "id").Int()
}

func (e *testEnv) createItem(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"description":"%s for rent","available":true}`, name, name)
	rec := e.do(t, http.MethodPost, "/items", ownerID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return gjson.Get(rec.Body.String(), "id").Int()
}

func bookingBody(itemID int64, start, end time.Time) string {
	return fmt.Sprintf(`{"itemId":%d,"start":%q,"end":%q}`, itemID, models.FormatTime(start), models.FormatTime(end))
}

func TestUsersEndpoints(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(t, http.MethodPost, "/users", 0, `{"name":"Ann","email":"ann@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := gjson.Get(rec.Body.String(), "id").Int()
	assert.Positive(t, id)
	assert.Equal(t, "ann@example.com", gjson.Get(rec.Body.String(), "email").String())

	rec = env.do(t, http.MethodPost, "/users", 0, `{"name":"Other","email":"ann@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "error").String())

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", id), 0, `{"name":"Anna"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anna", gjson.Get(rec.Body.String(), "name").String())
	assert.Equal(t, "ann@example.com", gjson.Get(rec.Body.String(), "email").String())

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/users/%d", id), 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anna", gjson.Get(rec.Body.String(), "name").String())

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", id), 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/users/%d", id), 0, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/users/abc", 0, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/users", 0, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSharerHeaderRequired(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	rec := env.do(t, http.MethodGet, "/items", 0, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, gjson.Get(rec.Body.String(), "error").String(), models.HeaderSharerUserID)

	req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
	req.Header.Set(models.HeaderSharerUserID, "not-a-number")
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestItemsEndpoints(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	owner := env.createUser(t, "Owner", "owner@example.com")
	other := env.createUser(t, "Other", "other@example.com")

	rec := env.do(t, http.MethodPost, "/items", owner, `{"name":"Drill","description":"Cordless drill","available":true,"requestId":42}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	itemID := gjson.Get(body, "id").Int()
	assert.Equal(t, owner, gjson.Get(body, "owner.id").Int())
	assert.Equal(t, "Owner", gjson.Get(body, "owner.name").String())
	assert.Equal(t, int64(42), gjson.Get(body, "requestId").Int())

	rec = env.do(t, http.MethodPost, "/items", 999, `{"name":"Saw","description":"Saw","available":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("PatchByStranger", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/items/%d", itemID), other, `{"name":"Hacked"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("PatchByOwner", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/items/%d", itemID), owner, `{"description":"Cordless drill with bits"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Drill", gjson.Get(rec.Body.String(), "name").String())
		assert.Equal(t, "Cordless drill with bits", gjson.Get(rec.Body.String(), "description").String())
		assert.True(t, gjson.Get(rec.Body.String(), "available").Bool())
	})

	t.Run("OwnerView", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/items/%d", itemID), other, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Equal(t, owner, gjson.Get(body, "ownerId").Int())
		assert.Equal(t, gjson.Null, gjson.Get(body, "lastBooking").Type)
		assert.Equal(t, gjson.Null, gjson.Get(body, "nextBooking").Type)
		assert.True(t, gjson.Get(body, "comments").IsArray())

		rec = env.do(t, http.MethodGet, "/items", owner, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())
	})

	t.Run("Search", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/items/search?text=DRILL", other, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())
		assert.Equal(t, "Owner", gjson.Get(rec.Body.String(), "0.owner.name").String())

		rec = env.do(t, http.MethodGet, "/items/search?text=", other, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("DeleteByOwner", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, fmt.Sprintf("/items/%d", itemID), other, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodDelete, fmt.Sprintf("/items/%d", itemID), owner, "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, fmt.Sprintf("/items/%d", itemID), owner, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBookingApprovalFlow(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	owner := env.createUser(t, "A", "a@example.com")
	booker := env.createUser(t, "B", "b@example.com")
	stranger := env.createUser(t, "C", "c@example.com")
	itemID := env.createItem(t, owner, "Tent")

	tomorrow := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(itemID, tomorrow, tomorrow.Add(24*time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := rec.Body.String()
	bookingID := gjson.Get(body, "id").Int()
	assert.Equal(t, "WAITING", gjson.Get(body, "status").String())
	assert.Equal(t, booker, gjson.Get(body, "booker.id").Int())
	assert.Equal(t, "Tent", gjson.Get(body, "item.name").String())
	assert.Equal(t, models.FormatTime(tomorrow), gjson.Get(body, "start").String())

	path := fmt.Sprintf("/bookings/%d", bookingID)

	rec = env.do(t, http.MethodPatch, path+"?approved=true", booker, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, path+"?approved=maybe", owner, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, path+"?approved=true", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "APPROVED", gjson.Get(rec.Body.String(), "status").String())

	rec = env.do(t, http.MethodGet, path, booker, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "APPROVED", gjson.Get(rec.Body.String(), "status").String())

	rec = env.do(t, http.MethodGet, path, stranger, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/bookings?state=FUTURE", booker, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookingID, gjson.Get(rec.Body.String(), "0.id").Int())

	rec = env.do(t, http.MethodGet, "/bookings/owner", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())

	rec = env.do(t, http.MethodGet, "/bookings/owner?state=PAST", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/items/%d", itemID), owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.FormatTime(tomorrow), gjson.Get(rec.Body.String(), "nextBooking").String())
}

func TestBookingValidation(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	owner := env.createUser(t, "A", "a@example.com")
	booker := env.createUser(t, "B", "b@example.com")
	itemID := env.createItem(t, owner, "Kayak")

	tomorrow := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)

	t.Run("EndBeforeStart", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(itemID, tomorrow.Add(48*time.Hour), tomorrow.Add(24*time.Hour)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, gjson.Get(rec.Body.String(), "error").String(), "end must be after")
	})

	t.Run("UnknownItem", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(999, tomorrow, tomorrow.Add(time.Hour)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("UnavailableItem", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, fmt.Sprintf("/items/%d", itemID), owner, `{"available":false}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/bookings", booker, bookingBody(itemID, tomorrow, tomorrow.Add(time.Hour)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadTimestamp", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/bookings", booker, fmt.Sprintf(`{"itemId":%d,"start":"tomorrow","end":"later"}`, itemID))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownState", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/bookings?state=UNSUPPORTED_STATUS", booker, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unknown state: UNSUPPORTED_STATUS", gjson.Get(rec.Body.String(), "error").String())
	})

	t.Run("UnknownBooking", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/bookings/999", booker, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestComments(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	ctx := context.Background()
	owner := env.createUser(t, "Owner", "owner@example.com")
	booker := env.createUser(t, "Booker", "booker@example.com")
	itemID := env.createItem(t, owner, "Ladder")
	path := fmt.Sprintf("/items/%d/comment", itemID)

	rec := env.do(t, http.MethodPost, path, booker, `{"text":"great"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	past := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, env.db.CreateBooking(ctx, &models.Booking{
		ItemID:   itemID,
		BookerID: booker,
		Start:    past,
		End:      past.Add(24 * time.Hour),
		Status:   models.StatusApproved,
	}))

	rec = env.do(t, http.MethodPost, path, booker, `{"text":"great"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Equal(t, "great", gjson.Get(body, "text").String())
	assert.Equal(t, "Booker", gjson.Get(body, "authorName").String())
	assert.Equal(t, itemID, gjson.Get(body, "itemId").Int())
	assert.NotEmpty(t, gjson.Get(body, "created").String())

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/items/%d", itemID), owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "comments.#").Int())
	assert.Equal(t, "great", gjson.Get(body, "comments.0.text").String())
	assert.Equal(t, models.FormatTime(past), gjson.Get(body, "lastBooking").String())
}

func TestRequestsEndpoints(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	asker := env.createUser(t, "Asker", "asker@example.com")
	owner := env.createUser(t, "Owner", "owner@example.com")

	rec := env.do(t, http.MethodPost, "/requests", asker, `{"description":"need a drill"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	requestID := gjson.Get(rec.Body.String(), "id").Int()
	assert.Equal(t, "need a drill", gjson.Get(rec.Body.String(), "description").String())
	assert.JSONEq(t, `[]`, gjson.Get(rec.Body.String(), "items").Raw)

	rec = env.do(t, http.MethodPost, "/items", owner, fmt.Sprintf(`{"name":"Drill","description":"drill","available":true,"requestId":%d}`, requestID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/requests", asker, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Drill", gjson.Get(rec.Body.String(), "0.items.0.name").String())
	assert.Equal(t, owner, gjson.Get(rec.Body.String(), "0.items.0.ownerId").Int())

	rec = env.do(t, http.MethodGet, "/requests/all", asker, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/requests/all", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, requestID, gjson.Get(rec.Body.String(), "0.id").Int())

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/requests/%d", requestID), owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "items.#").Int())

	rec = env.do(t, http.MethodGet, "/requests/999", owner, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/requests", 999, `{"description":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportOwnerBookings(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	owner := env.createUser(t, "Owner", "owner@example.com")
	booker := env.createUser(t, "Booker", "booker@example.com")
	itemID := env.createItem(t, owner, "Bike")

	tomorrow := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(itemID, tomorrow, tomorrow.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/bookings/owner/export", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "bookings.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	rec := env.do(t, http.MethodGet, "/health", 0, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())

	logger := zerolog.New(io.Discard)
	down := NewHTTPServer(config.ServerConfig{}, Services{}, failingPinger{}, &logger)
	rr := httptest.NewRecorder()
	down.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{RateLimit: config.RateLimitConfig{RPS: 0.001, Burst: 2}})
	user := env.createUser(t, "Ann", "ann@example.com")

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, http.MethodGet, "/items", user, "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Buckets are per user.
	other := env.do(t, http.MethodGet, "/items", user+1, "")
	assert.NotEqual(t, http.StatusTooManyRequests, other.Code)
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error {
	return errors.New("connection refused")
}
