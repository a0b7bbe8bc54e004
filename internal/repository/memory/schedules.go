package memory

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

func (s *Store) CreateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	return s.write(func(db *database) (func(), error) {
		schedule.ID = db.next("schedules")
		undo := restore(db.schedules, schedule.ID)
		db.schedules[schedule.ID] = *schedule

		return undo, nil
	})
}

func (s *Store) GetSchedule(ctx context.Context, id int) (*domain.Schedule, error) {
	var schedule domain.Schedule

	err := s.read(func(db *database) error {
		sc, ok := db.schedules[id]
		if !ok {
			return domain.ErrRecordNotFound
		}
		schedule = sc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}

func (s *Store) LockSchedule(ctx context.Context, id int) (*domain.Schedule, error) {
	if _, err := s.GetSchedule(ctx, id); err != nil {
		return nil, err
	}

	if err := s.lock(ctx, "schedules", id); err != nil {
		return nil, err
	}

	return s.GetSchedule(ctx, id)
}

func (s *Store) ListSchedules(ctx context.Context) ([]domain.Schedule, error) {
	var schedules []domain.Schedule

	err := s.read(func(db *database) error {
		schedules = sortedValues(db.schedules, func(domain.Schedule) bool { return true },
			byID(func(sc domain.Schedule) int { return sc.ID }))
		return nil
	})

	return schedules, err
}

func (s *Store) UpdateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	return s.write(func(db *database) (func(), error) {
		if _, ok := db.schedules[schedule.ID]; !ok {
			return nil, domain.ErrRecordNotFound
		}

		undo := restore(db.schedules, schedule.ID)
		db.schedules[schedule.ID] = *schedule

		return undo, nil
	})
}

func (s *Store) DeleteSchedule(ctx context.Context, id int) error {
	return s.write(func(db *database) (func(), error) {
		if _, ok := db.schedules[id]; !ok {
			return nil, domain.ErrRecordNotFound
		}

		undo := restore(db.schedules, id)
		delete(db.schedules, id)

		return undo, nil
	})
}

func (s *Store) UnlinkShowingsFromSchedule(ctx context.Context, scheduleID int) error {
	return s.write(func(db *database) (func(), error) {
		var undos []func()

		for id, sh := range db.showings {
			if sh.ScheduleID == nil || *sh.ScheduleID != scheduleID {
				continue
			}

			undos = append(undos, restore(db.showings, id))
			sh.ScheduleID = nil
			db.showings[id] = sh
		}

		return func() {
			for _, undo := range undos {
				undo()
			}
		}, nil
	})
}
