package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

// CheckNoOverlap fails with a *domain.ShowingConflictError if proposed
// intersects the occupied interval of any other showing in the room.
// excludeShowingID (0 for none) is skipped, so a showing can be moved
// within its own slot.
//
// Only showings starting after proposed.Start minus the room's longest
// occupied interval can reach into proposed, so the candidate query starts
// there.
func CheckNoOverlap(ctx context.Context, store domain.Store, roomID int, proposed domain.Interval, excludeShowingID int) error {
	longest, err := store.LongestShowingInRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to find the longest showing of room %d: %w", roomID, err)
	}

	reach := time.Duration(longest)*time.Minute + domain.ShowingBreak

	candidates, err := store.ListShowingsInRoom(ctx, roomID, proposed.Start.Add(-reach), proposed.End)
	if err != nil {
		return fmt.Errorf("failed to list showings of room %d: %w", roomID, err)
	}

	durations := make(map[int]int)

	for _, candidate := range candidates {
		if candidate.ID == excludeShowingID {
			continue
		}

		duration, ok := durations[candidate.MovieID]
		if !ok {
			movie, err := store.GetMovie(ctx, candidate.MovieID)
			if err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					return fmt.Errorf("movie %d of showing %d is missing: %w", candidate.MovieID, candidate.ID, err)
				}
				return err
			}
			duration = movie.Duration
			durations[candidate.MovieID] = duration
		}

		occupied := domain.OccupiedInterval(candidate.StartTime, duration)
		if proposed.Overlaps(occupied) {
			return &domain.ShowingConflictError{
				RoomID:    roomID,
				ShowingID: candidate.ID,
				Start:     occupied.Start,
				End:       occupied.End,
			}
		}
	}

	return nil
}
