package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Second

func showingKey(showingID int) string {
	return fmt.Sprintf("availability:showing:%d", showingID)
}

func roomKey(roomID int) string {
	return fmt.Sprintf("availability:room:%d", roomID)
}

type cachedSeat struct {
	ID       int    `json:"id"`
	RoomID   int    `json:"roomId"`
	Row      int    `json:"row"`
	Number   int    `json:"number"`
	Type     string `json:"type"`
	Enabled  bool   `json:"enabled"`
	Occupied bool   `json:"occupied"`
}

// RedisAvailabilityCache stores availability snapshots under
// availability:showing:{id}. Each room keeps a set of its showing keys so a
// layout change can drop all of them at once.
type RedisAvailabilityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client redis.UniversalClient, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, showingID int) ([]domain.SeatAvailability, bool, error) {
	data, err := c.client.Get(ctx, showingKey(showingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read availability of showing %d: %w", showingID, err)
	}

	var cached []cachedSeat
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to decode availability of showing %d: %w", showingID, err)
	}

	seats := make([]domain.SeatAvailability, len(cached))
	for i, cs := range cached {
		seats[i] = domain.SeatAvailability{
			Seat: domain.Seat{
				ID:      cs.ID,
				RoomID:  cs.RoomID,
				Row:     cs.Row,
				Number:  cs.Number,
				Type:    domain.SeatType(cs.Type),
				Enabled: cs.Enabled,
			},
			Occupied: cs.Occupied,
		}
	}

	return seats, true, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, showingID, roomID int, seats []domain.SeatAvailability) error {
	cached := make([]cachedSeat, len(seats))
	for i, s := range seats {
		cached[i] = cachedSeat{
			ID:       s.ID,
			RoomID:   s.RoomID,
			Row:      s.Row,
			Number:   s.Number,
			Type:     string(s.Type),
			Enabled:  s.Enabled,
			Occupied: s.Occupied,
		}
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, showingKey(showingID), data, c.ttl)
	pipe.SAdd(ctx, roomKey(roomID), showingKey(showingID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache availability of showing %d: %w", showingID, err)
	}

	return nil
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, showingID int) error {
	if err := c.client.Del(ctx, showingKey(showingID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate showing %d: %w", showingID, err)
	}

	return nil
}

func (c *RedisAvailabilityCache) InvalidateRoom(ctx context.Context, roomID int) error {
	keys, err := c.client.SMembers(ctx, roomKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached showings of room %d: %w", roomID, err)
	}

	keys = append(keys, roomKey(roomID))
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate room %d: %w", roomID, err)
	}

	return nil
}
