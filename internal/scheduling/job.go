package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartGenerationJob registers a recurring GenerateAll run on a new gocron
// scheduler and starts it. The first run happens immediately. Callers own
// the returned scheduler and must shut it down.
func StartGenerationJob(ctx context.Context, svc *Service, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(svc.location))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			results, err := svc.GenerateAll(ctx)
			if err != nil {
				logger.Error("scheduled showing generation finished with errors", "error", err)
			}

			for _, r := range results {
				logger.Info("scheduled showing generation",
					"schedule_id", r.ScheduleID,
					"created", r.Created,
					"skipped", r.Skipped)
			}
		}),
		gocron.WithName("generate-showings"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register generation job: %w", err)
	}

	scheduler.Start()

	return scheduler, nil
}
