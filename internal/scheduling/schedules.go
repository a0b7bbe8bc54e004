package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/shopspring/decimal"
)

type ScheduleInput struct {
	MovieID   int
	RoomID    int
	Weekday   time.Weekday
	StartTime domain.TimeOfDay
	StartDate time.Time
	EndDate   time.Time
	BasePrice decimal.Decimal
	VIPPrice  decimal.NullDecimal
}

func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (*domain.Schedule, error) {
	verr := &domain.ValidationError{}
	if in.Weekday < time.Sunday || in.Weekday > time.Saturday {
		verr.Add("weekday", "must be a day of the week")
	}
	if in.StartDate.IsZero() {
		verr.Add("startDate", "is required")
	}
	if in.EndDate.IsZero() {
		verr.Add("endDate", "is required")
	}
	if !in.StartDate.IsZero() && in.EndDate.Before(in.StartDate) {
		verr.Add("endDate", "must not be before startDate")
	}
	validatePrices(verr, in.BasePrice, in.VIPPrice)
	if verr.HasIssues() {
		return nil, verr
	}

	schedule := &domain.Schedule{
		MovieID:   in.MovieID,
		RoomID:    in.RoomID,
		Weekday:   in.Weekday,
		StartTime: in.StartTime,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		BasePrice: in.BasePrice,
		VIPPrice:  in.VIPPrice,
		CreatedAt: s.now(),
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.GetMovie(ctx, in.MovieID); err != nil {
			return fmt.Errorf("movie %d: %w", in.MovieID, err)
		}
		if _, err := tx.GetRoom(ctx, in.RoomID); err != nil {
			return fmt.Errorf("room %d: %w", in.RoomID, err)
		}

		return tx.CreateSchedule(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule created", "schedule_id", schedule.ID, "weekday", schedule.Weekday, "time", schedule.StartTime)

	return schedule, nil
}

// ScheduleUpdate carries the fields to change. Nil fields, and a VIPPrice
// that is not Valid, keep their current value. ClearVIPPrice drops the VIP
// surcharge and cannot be combined with a new VIPPrice.
type ScheduleUpdate struct {
	Weekday       *time.Weekday
	StartTime     *domain.TimeOfDay
	StartDate     *time.Time
	EndDate       *time.Time
	BasePrice     *decimal.Decimal
	VIPPrice      decimal.NullDecimal
	ClearVIPPrice bool
}

// UpdateSchedule changes the rule for future generation runs. Showings it
// already generated are left as they are.
func (s *Service) UpdateSchedule(ctx context.Context, id int, update ScheduleUpdate) (*domain.Schedule, error) {
	if update.ClearVIPPrice && update.VIPPrice.Valid {
		return nil, domain.NewValidationError("vipPrice", "must be omitted when clearing the VIP price")
	}

	var schedule *domain.Schedule

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.LockSchedule(ctx, id)
		if err != nil {
			return err
		}

		if update.Weekday != nil {
			current.Weekday = *update.Weekday
		}
		if update.StartTime != nil {
			current.StartTime = *update.StartTime
		}
		if update.StartDate != nil {
			current.StartDate = *update.StartDate
		}
		if update.EndDate != nil {
			current.EndDate = *update.EndDate
		}
		if update.BasePrice != nil {
			current.BasePrice = *update.BasePrice
		}
		if update.VIPPrice.Valid {
			current.VIPPrice = update.VIPPrice
		}
		if update.ClearVIPPrice {
			current.VIPPrice = decimal.NullDecimal{}
		}

		verr := &domain.ValidationError{}
		if current.Weekday < time.Sunday || current.Weekday > time.Saturday {
			verr.Add("weekday", "must be a day of the week")
		}
		if current.EndDate.Before(current.StartDate) {
			verr.Add("endDate", "must not be before startDate")
		}
		validatePrices(verr, current.BasePrice, current.VIPPrice)
		if verr.HasIssues() {
			return verr
		}

		schedule = current
		return tx.UpdateSchedule(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule updated", "schedule_id", schedule.ID, "weekday", schedule.Weekday, "time", schedule.StartTime)

	return schedule, nil
}

func (s *Service) GetSchedule(ctx context.Context, id int) (*domain.Schedule, error) {
	return s.store.GetSchedule(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	return s.store.ListSchedules(ctx)
}

// DeleteSchedule removes the rule. Showings it generated stay and lose their
// schedule reference.
func (s *Service) DeleteSchedule(ctx context.Context, id int) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.GetSchedule(ctx, id); err != nil {
			return err
		}

		if err := tx.UnlinkShowingsFromSchedule(ctx, id); err != nil {
			return err
		}

		return tx.DeleteSchedule(ctx, id)
	})
}

// GenerateShowings creates a showing for every matching date of the schedule.
// Dates that already have a showing from this schedule, or that overlap
// another showing in the room, are skipped. Each date commits on its own.
func (s *Service) GenerateShowings(ctx context.Context, scheduleID int) (*domain.GenerationResult, error) {
	schedule, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	result := &domain.GenerationResult{ScheduleID: schedule.ID, Showings: []domain.Showing{}}

	for _, date := range schedule.Dates() {
		start := schedule.StartTime.On(date, s.location)

		showing, err := s.generateOne(ctx, schedule, start)
		switch {
		case err == nil && showing == nil:
			result.Skipped++
		case err == nil:
			result.Created++
			result.Showings = append(result.Showings, *showing)
		case errors.Is(err, domain.ErrShowingConflict):
			result.Skipped++
			s.logger.Info("skipping conflicting date", "schedule_id", schedule.ID, "start", start, "reason", err.Error())
		default:
			return nil, fmt.Errorf("failed to generate showing at %s: %w", start.Format(time.RFC3339), err)
		}
	}

	s.logger.Info("showings generated", "schedule_id", schedule.ID, "created", result.Created, "skipped", result.Skipped)

	return result, nil
}

// generateOne returns a nil showing when the schedule already covers start.
func (s *Service) generateOne(ctx context.Context, schedule *domain.Schedule, start time.Time) (*domain.Showing, error) {
	var created *domain.Showing

	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := lockRoom(ctx, tx, schedule.RoomID); err != nil {
			return err
		}

		_, err := tx.FindShowingByScheduleAndStart(ctx, schedule.ID, start)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}

		scheduleID := schedule.ID
		showing := &domain.Showing{
			MovieID:    schedule.MovieID,
			RoomID:     schedule.RoomID,
			StartTime:  start,
			BasePrice:  schedule.BasePrice,
			VIPPrice:   schedule.VIPPrice,
			ScheduleID: &scheduleID,
		}

		if err := createShowing(ctx, tx, showing); err != nil {
			return err
		}

		created = showing
		return nil
	})

	return created, err
}

// GenerateAll runs generation for every schedule whose end date is today or
// later. A failing schedule does not stop the others; all failures are
// returned joined.
func (s *Service) GenerateAll(ctx context.Context) ([]domain.GenerationResult, error) {
	schedules, err := s.store.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		results []domain.GenerationResult
		errs    []error
	)

	for _, schedule := range schedules {
		end := time.Date(schedule.EndDate.Year(), schedule.EndDate.Month(), schedule.EndDate.Day(), 0, 0, 0, 0, time.UTC)
		if end.Before(today) {
			continue
		}

		result, err := s.GenerateShowings(ctx, schedule.ID)
		if err != nil {
			s.logger.Error("schedule generation failed", "schedule_id", schedule.ID, "error", err)
			errs = append(errs, fmt.Errorf("schedule %d: %w", schedule.ID, err))
			continue
		}

		results = append(results, *result)
	}

	return results, errors.Join(errs...)
}
