package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAvailability = []domain.SeatAvailability{
	{Seat: domain.Seat{ID: 1, RoomID: 2, Row: 1, Number: 1, Type: domain.SeatStandard, Enabled: true}},
	{Seat: domain.Seat{ID: 2, RoomID: 2, Row: 1, Number: 2, Type: domain.SeatVIP, Enabled: true}, Occupied: true},
}

func TestRedisAvailabilityCache_SetThenGet(t *testing.T) {
	client := new(mocks.MockRedisClient)
	pipe := new(mocks.MockTxPipeline)
	c := NewRedisAvailabilityCache(client, 0)

	var stored []byte
	client.On("TxPipeline").Return(pipe)
	pipe.On("Set", mock.Anything, "availability:showing:5", mock.Anything, DefaultTTL).
		Run(func(args mock.Arguments) { stored = args.Get(2).([]byte) }).
		Return(redis.NewStatusResult("OK", nil))
	pipe.On("SAdd", mock.Anything, "availability:room:2", []interface{}{"availability:showing:5"}).
		Return(redis.NewIntResult(1, nil))
	pipe.On("Exec", mock.Anything).Return([]redis.Cmder{}, nil)

	require.NoError(t, c.Set(context.Background(), 5, 2, testAvailability))

	client.On("Get", mock.Anything, "availability:showing:5").Return(redis.NewStringResult(string(stored), nil))

	got, ok, err := c.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testAvailability, got)

	client.AssertExpectations(t)
	pipe.AssertExpectations(t)
}

func TestRedisAvailabilityCache_GetMiss(t *testing.T) {
	client := new(mocks.MockRedisClient)
	client.On("Get", mock.Anything, "availability:showing:9").Return(redis.NewStringResult("", redis.Nil))

	got, ok, err := NewRedisAvailabilityCache(client, time.Second).Get(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisAvailabilityCache_GetError(t *testing.T) {
	client := new(mocks.MockRedisClient)
	client.On("Get", mock.Anything, "availability:showing:9").Return(redis.NewStringResult("", errors.New("connection refused")))

	_, ok, err := NewRedisAvailabilityCache(client, time.Second).Get(context.Background(), 9)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestRedisAvailabilityCache_InvalidateRoom(t *testing.T) {
	client := new(mocks.MockRedisClient)
	client.On("SMembers", mock.Anything, "availability:room:2").
		Return(redis.NewStringSliceResult([]string{"availability:showing:5", "availability:showing:6"}, nil))
	client.On("Del", mock.Anything, []string{"availability:showing:5", "availability:showing:6", "availability:room:2"}).
		Return(redis.NewIntResult(3, nil))

	require.NoError(t, NewRedisAvailabilityCache(client, time.Second).InvalidateRoom(context.Background(), 2))
	client.AssertExpectations(t)
}

func TestRedisAvailabilityCache_Invalidate(t *testing.T) {
	client := new(mocks.MockRedisClient)
	client.On("Del", mock.Anything, []string{"availability:showing:5"}).Return(redis.NewIntResult(1, nil))

	require.NoError(t, NewRedisAvailabilityCache(client, time.Second).Invalidate(context.Background(), 5))
	client.AssertExpectations(t)
}
