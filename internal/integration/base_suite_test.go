package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "cinema"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"

	storeLockTimeout = 5 * time.Second
)

// BaseSuite owns one postgres and one redis container for the whole suite.
// Every test starts from empty tables seeded with a movie, a 4x4 room whose
// rows 2 and 3 are VIP and a showing two days ahead.
type BaseSuite struct {
	suite.Suite

	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer

	pool  *pgxpool.Pool
	store *repository.PostgresStore
	redis *redis.Client

	logger *slog.Logger

	movie   *domain.Movie
	room    *domain.Room
	seats   []domain.Seat
	showing *domain.Showing
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	dbContainer, err := getDbContainer(ctx)
	s.Require().NoError(err)
	s.dbContainer = dbContainer

	cacheContainer, err := getCacheContainer(ctx)
	s.Require().NoError(err)
	s.cacheContainer = cacheContainer

	s.Require().NoError(repository.RunMigrations(dbContainer.ConnectionString, repository.MigrateUp))

	pool, err := pgxpool.New(ctx, dbContainer.ConnectionString)
	s.Require().NoError(err)
	s.pool = pool
	s.store = repository.NewPostgresStore(pool, storeLockTimeout)

	s.redis = redis.NewClient(&redis.Options{Addr: cacheContainer.ConnectionString})
	s.Require().NoError(s.redis.Ping(ctx).Err())

	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *BaseSuite) TearDownSuite() {
	if s.redis != nil {
		s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

func (s *BaseSuite) SetupTest() {
	ctx := context.Background()

	resetDatabase(s.T(), s.pool)
	s.Require().NoError(s.redis.FlushAll(ctx).Err())

	s.movie = &domain.Movie{Title: "Arrival", Duration: 116}
	s.Require().NoError(s.store.CreateMovie(ctx, s.movie))

	s.room = &domain.Room{Name: "Hall A", TotalRows: 4, SeatsPerRow: 4}
	s.seats = domain.GenerateSeatLayout(*s.room)
	s.Require().NoError(s.store.CreateRoom(ctx, s.room, s.seats))

	s.showing = &domain.Showing{
		MovieID:   s.movie.ID,
		RoomID:    s.room.ID,
		StartTime: time.Now().UTC().Truncate(time.Minute).Add(48 * time.Hour),
		BasePrice: decimal.NewFromInt(20),
		VIPPrice:  decimal.NewNullDecimal(decimal.NewFromInt(30)),
	}
	s.Require().NoError(s.store.CreateShowing(ctx, s.showing))
}

// seat returns the seat at row and number (both starting at 1).
func (s *BaseSuite) seat(row, number int) domain.Seat {
	return s.seats[(row-1)*s.room.SeatsPerRow+number-1]
}

func resetDatabase(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE ticket_access_logs, reservation_seats, reservations, showings, schedules, seats, rooms, movies
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB)
	AfterTestFunc    func(t testing.TB, res *http.Response)
}

func (sc Scenario) Run(t *testing.T, handler http.Handler) {
	t.Run(sc.Name, func(t *testing.T) {
		req, err := prepareRequest(sc.Method, sc.URL, sc.Body, sc.Headers)
		require.NoError(t, err)

		if sc.BeforeTestFunc != nil {
			sc.BeforeTestFunc(t)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, sc.ExpectedStatus, res.StatusCode)

		if sc.ExpectedResponse != "" {
			compareResponse(t, res.Body, sc.ExpectedResponse)
		}

		if sc.AfterTestFunc != nil {
			sc.AfterTestFunc(t, res)
		}
	})
}
