package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/mocks"
	"github.com/metinatakli/cinema-seat-booking/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var testNow = time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)

// fixture is a small cinema: one movie and a 4x5 room whose rows 2 and 3
// are VIP, with a single showing two days ahead.
type fixture struct {
	app        *Application
	handler    http.Handler
	store      *memory.Store
	authorizer *mocks.MockAuthorizer
	movie      *domain.Movie
	room       *domain.Room
	seats      []domain.Seat
	showing    *domain.Showing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	f := &fixture{
		store:      memory.New(memory.WithLockTimeout(time.Second)),
		authorizer: new(mocks.MockAuthorizer),
	}

	f.movie = &domain.Movie{Title: "Arrival", Duration: 116}
	require.NoError(t, f.store.CreateMovie(ctx, f.movie))

	f.room = &domain.Room{Name: "Hall A", TotalRows: 4, SeatsPerRow: 5}
	f.seats = domain.GenerateSeatLayout(*f.room)
	require.NoError(t, f.store.CreateRoom(ctx, f.room, f.seats))

	f.showing = &domain.Showing{
		MovieID:   f.movie.ID,
		RoomID:    f.room.ID,
		StartTime: testNow.Add(48 * time.Hour),
		BasePrice: decimal.NewFromInt(20),
		VIPPrice:  decimal.NewNullDecimal(decimal.NewFromInt(30)),
	}
	require.NoError(t, f.store.CreateShowing(ctx, f.showing))

	f.app = newTestApplication(f.store, f.authorizer)
	f.handler = f.app.Routes()

	return f
}

func newTestApplication(store domain.Store, authorizer domain.Authorizer) *Application {
	cfg := config.Config{
		Env:       "test",
		JWTSecret: testSecret,
		Timezone:  "UTC",
	}

	return NewApplication(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), Dependencies{
		Store:      store,
		Authorizer: authorizer,
		Now:        func() time.Time { return testNow },
	})
}

// seat returns the seat at row and number (both starting at 1).
func (f *fixture) seat(row, number int) domain.Seat {
	return f.seats[(row-1)*f.room.SeatsPerRow+number-1]
}

func (f *fixture) serve(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func authorize(t *testing.T, r *http.Request, userID int, role string) *http.Request {
	t.Helper()

	token, err := IssueAccessToken(testSecret, userID, role, time.Hour, testNow)
	require.NoError(t, err)

	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	t.Helper()

	if w.Code != tt.wantStatus {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
	}

	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in %+v", tt.wantErrMessage, validationResp.ValidationErrors)
		}

	default:
		var errorResp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
