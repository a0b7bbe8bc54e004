package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/metinatakli/cinema-seat-booking/internal/app"
	"github.com/metinatakli/cinema-seat-booking/internal/config"
	"github.com/metinatakli/cinema-seat-booking/internal/domain"
	"github.com/metinatakli/cinema-seat-booking/internal/repository"
	"github.com/metinatakli/cinema-seat-booking/internal/vcs"
	"github.com/spf13/cobra"
)

var (
	version = vcs.Version()
)

var errDSNRequired = errors.New("--db-dsn (or CINEMA_DB_DSN) is required for this command")

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cinema-api: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &config.Config{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cmd := &cobra.Command{
		Use:           "cinema-api",
		Short:         "Cinema seat booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			*cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg, logger)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context(), *cfg, logger)
			},
		},
		newMigrateCommand(cfg),
		newSeedCommand(cfg, logger),
		newGenerateCommand(cfg, logger),
		newTokenCommand(cfg),
		&cobra.Command{
			Use:   "version",
			Short: "Display version and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Version:\t%s\n", version)
				return nil
			},
		},
	)

	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, shutdown, err := app.InitTelemetry(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	return app.Run(ctx, cfg, logger)
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(direction repository.MigrationDirection) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if cfg.DB.DSN == "" {
				return errDSNRequired
			}
			return repository.RunMigrations(cfg.DB.DSN, direction)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(repository.MigrateUp)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", RunE: run(repository.MigrateDown)},
	)

	return cmd
}

func newSeedCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var (
		title       string
		duration    int
		roomName    string
		rows        int
		seatsPerRow int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision a movie and a room with its seat layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DB.DSN == "" {
				return errDSNRequired
			}
			if rows < 1 || seatsPerRow < 1 || duration < 1 {
				return errors.New("rows, seats-per-row and duration must be positive")
			}

			rt, err := app.OpenRuntime(*cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			movie := &domain.Movie{Title: title, Duration: duration}
			room := &domain.Room{Name: roomName, TotalRows: rows, SeatsPerRow: seatsPerRow}
			seats := domain.GenerateSeatLayout(*room)

			err = rt.Store.WithTx(ctx, func(ctx context.Context, tx domain.Store) error {
				if err := tx.CreateMovie(ctx, movie); err != nil {
					return err
				}
				return tx.CreateRoom(ctx, room, seats)
			})
			if err != nil {
				return err
			}

			logger.Info("seeded catalog", "movie_id", movie.ID, "room_id", room.ID, "seats", len(seats))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "Arrival", "Movie title")
	cmd.Flags().IntVar(&duration, "duration", 116, "Movie duration in minutes")
	cmd.Flags().StringVar(&roomName, "room", "Hall 1", "Room name")
	cmd.Flags().IntVar(&rows, "rows", 10, "Number of seat rows")
	cmd.Flags().IntVar(&seatsPerRow, "seats-per-row", 12, "Seats in each row")

	return cmd
}

func newGenerateCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-showings",
		Short: "Expand every active schedule into showings once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DB.DSN == "" {
				return errDSNRequired
			}

			rt, err := app.OpenRuntime(*cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			a := app.NewApplication(*cfg, logger, app.Dependencies{
				Store:  rt.Store,
				Cache:  rt.Cache,
				Events: rt.Events,
			})

			results, err := a.Scheduling().GenerateAll(cmd.Context())
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "schedule %d: created %d, skipped %d\n", r.ScheduleID, r.Created, r.Skipped)
			}

			return err
		},
	}
}

func newTokenCommand(cfg *config.Config) *cobra.Command {
	var (
		userID int
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.IssueAccessToken(cfg.JWTSecret, userID, role, ttl, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().IntVar(&userID, "user", 1, "User id placed in the subject claim")
	cmd.Flags().StringVar(&role, "role", app.RoleCustomer, "Role claim (customer|admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}
