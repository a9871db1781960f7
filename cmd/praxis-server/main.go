package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/praxis/praxis/internal/config"
	"github.com/praxis/praxis/internal/domain/booking"
	"github.com/praxis/praxis/internal/platform/auth"
	"github.com/praxis/praxis/internal/platform/calendar"
	"github.com/praxis/praxis/internal/platform/db"
	"github.com/praxis/praxis/internal/platform/middleware"
)

const cliTimeLayout = "2006-01-02 15:04"

func main() {
	rootCmd := &cobra.Command{
		Use:   "praxis-server",
		Short: "Practice appointment scheduler",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(fillCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openService loads the config, connects to Postgres and builds the booking
// service for the offline CLI commands.
func openService(ctx context.Context) (*booking.Service, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return booking.NewService(booking.NewAppointmentRepoPG(pool)), pool, nil
}

// parseCLITime parses "YYYY-MM-DD HH:MM" and floors it to a quantum
// boundary. An empty value yields the zero time, which the service resolves
// to its default bound.
func parseCLITime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(cliTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want YYYY-MM-DD HH:MM)", value)
	}
	day := calendar.DayStart(t)
	offset := t.Sub(day)
	return day.Add(offset - offset%calendar.Quantum), nil
}

func rangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Start of the query range (YYYY-MM-DD HH:MM, default: now)")
	cmd.Flags().String("to", "", "End of the query range (YYYY-MM-DD HH:MM, default: Friday close of business)")
}

func parseRangeFlags(cmd *cobra.Command) (time.Time, time.Time, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")
	from, err := parseCLITime(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseCLITime(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List free appointment slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			typStr, _ := cmd.Flags().GetString("type")
			typ, err := booking.ParseAppointmentType(typStr)
			if err != nil {
				return err
			}
			from, to, err := parseRangeFlags(cmd)
			if err != nil {
				return err
			}
			optimized, _ := cmd.Flags().GetBool("optimized")

			ctx := context.Background()
			svc, pool, err := openService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			var slots []time.Time
			if optimized {
				slots, err = svc.FreeSlotsOptimized(ctx, from, to, typ)
			} else {
				slots, err = svc.FreeSlots(ctx, from, to, typ)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Free slots for %s:\n", typ.DisplayName())
			for _, slot := range slots {
				fmt.Println(slot.Format(cliTimeLayout))
			}
			fmt.Printf("%d slot(s)\n", len(slots))
			return nil
		},
	}
	cmd.Flags().String("type", "short", "Appointment type: short, medium or long")
	cmd.Flags().Bool("optimized", false, "Show at most one slot per hour window")
	rangeFlags(cmd)
	return cmd
}

func bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			typStr, _ := cmd.Flags().GetString("type")
			typ, err := booking.ParseAppointmentType(typStr)
			if err != nil {
				return err
			}
			startStr, _ := cmd.Flags().GetString("start")
			if startStr == "" {
				return fmt.Errorf("--start is required")
			}
			start, err := parseCLITime(startStr)
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, pool, err := openService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			appt, err := svc.Book(ctx, start, typ)
			if err != nil {
				return err
			}
			fmt.Printf("Booked %s at %s (id %s)\n",
				appt.Type.DisplayName(), appt.StartTime.Format(cliTimeLayout), appt.ID)
			return nil
		},
	}
	cmd.Flags().String("type", "short", "Appointment type: short, medium or long")
	cmd.Flags().String("start", "", "Appointment start (YYYY-MM-DD HH:MM)")
	return cmd
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List booked appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRangeFlags(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, pool, err := openService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			appointments, err := svc.ListAppointments(ctx, from, to)
			if err != nil {
				return err
			}

			fmt.Printf("%-17s %-17s %s\n", "START", "END", "TYPE")
			for _, a := range appointments {
				fmt.Printf("%-17s %-17s %s\n",
					a.StartTime.Format(cliTimeLayout), a.EndTime().Format(cliTimeLayout), a.Type.DisplayName())
			}
			fmt.Printf("%d appointment(s)\n", len(appointments))
			return nil
		},
	}
	rangeFlags(cmd)
	return cmd
}

func fillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the calendar with random appointments (demo/load seeding)",
		RunE: func(cmd *cobra.Command, args []string) error {
			typStr, _ := cmd.Flags().GetString("type")
			typ, err := booking.ParseAppointmentType(typStr)
			if err != nil {
				return err
			}
			percent, _ := cmd.Flags().GetInt("percent")
			from, to, err := parseRangeFlags(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			svc, pool, err := openService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			added, err := svc.FillRandom(ctx, from, to, typ, percent)
			if err != nil {
				return err
			}
			fmt.Printf("Added %d random %s appointment(s)\n", added, typ.DisplayName())
			return nil
		},
	}
	cmd.Flags().String("type", "short", "Appointment type: short, medium or long")
	cmd.Flags().Int("percent", 50, "Target fill percentage of business quanta in range")
	rangeFlags(cmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduling API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	if loc, err := cfg.Location(); err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	} else {
		time.Local = loc
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API routes
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret), cfg.JWTIssuer))
	}

	svc := booking.NewService(booking.NewAppointmentRepoPG(pool))
	booking.NewHandler(svc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
