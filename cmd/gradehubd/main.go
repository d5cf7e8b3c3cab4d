// Package main is the entry point for the gradehub core daemon. It wires the
// in-memory stores, the statistic cache and its sweeper, the optional shared
// Redis cache, and the batch coordinator, then serves until shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gradehub/gradehub-core/config"
	"github.com/gradehub/gradehub-core/internal/batch"
	"github.com/gradehub/gradehub-core/internal/cache"
	"github.com/gradehub/gradehub-core/internal/cache/rediscache"
	"github.com/gradehub/gradehub-core/internal/directory"
	"github.com/gradehub/gradehub-core/internal/domain/grade"
	"github.com/gradehub/gradehub-core/internal/domain/student"
	"github.com/gradehub/gradehub-core/internal/ledger"
	"github.com/gradehub/gradehub-core/pkg/idgen"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	log.Info("starting gradehub core",
		"version", cfg.App.Version,
		"environment", string(cfg.App.Environment),
	)

	// Statistic cache with its background sweep.
	stats := cache.New[float64](cache.Config{
		TTL:            cfg.Cache.TTL,
		Capacity:       cfg.Cache.Capacity,
		HighWaterRatio: cfg.Cache.HighWaterRatio,
		SweepInterval:  cfg.Cache.SweepInterval,
		Logger:         log,
	})
	stats.StartSweeper()
	defer stats.StopSweeper()

	// Canonical stores with injected identifier generators.
	dir := directory.New(idgen.NewSequence("STU", 3), directory.Config{
		Capacity: cfg.Directory.Capacity,
		Logger:   log,
	})
	led := ledger.New(dir, stats, idgen.NewSequence("GRD", 3), ledger.Config{
		Scale:  grade.Scale(cfg.Directory.GPAScale),
		Logger: log,
	})

	// Optional shared cache for multi-process deployments.
	var shared *rediscache.Cache
	if cfg.Redis.Enabled {
		shared, err = rediscache.New(rediscache.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			TTL:          cfg.Redis.TTL,
		})
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}
		defer shared.Close()
		log.Info("shared redis cache connected", "addr", cfg.Redis.Addr)
	}

	if cfg.IsDevelopment() {
		if err := seedDemoData(dir, led); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		runDemoBatch(ctx, cfg, log, dir, led)
	}

	if shared != nil {
		ids := make([]string, 0, dir.Len())
		for _, s := range dir.AllStudents() {
			ids = append(ids, s.ID)
		}
		if err := shared.WarmStudentAverages(ctx, led, ids); err != nil {
			log.Warn("shared cache warm failed", "error", err)
		}
	}

	// Block until shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.App.ShutdownTimeout.String())
	st := stats.Stats()
	log.Info("cache stats at shutdown",
		"hits", st.Hits,
		"misses", st.Misses,
		"evictions", st.Evictions,
	)
	return nil
}

// seedDemoData registers a handful of students and grades so a development
// run has something to report on.
func seedDemoData(dir *directory.Directory, led *ledger.Ledger) error {
	seed := []struct {
		name, email string
		age         int
		category    student.Category
		scores      map[string]float64
	}{
		{"Aruzhan Bekova", "aruzhan@gradehub.dev", 17, student.CategoryHonors,
			map[string]float64{"Mathematics": 95, "Physics": 91, "Art": 88}},
		{"Daniyar Omarov", "daniyar@gradehub.dev", 16, student.CategoryRegular,
			map[string]float64{"Mathematics": 78, "History": 83}},
		{"Madina Akhmetova", "madina@gradehub.dev", 18, student.CategoryRegular,
			map[string]float64{"Physics": 67, "Art": 74}},
	}

	for _, row := range seed {
		s, err := student.NewStudent(student.NewStudentParams{
			Name:     row.name,
			Age:      row.age,
			Email:    row.email,
			Category: row.category,
		})
		if err != nil {
			return err
		}
		id, err := dir.AddStudent(s)
		if err != nil {
			return err
		}
		for subject, score := range row.scores {
			category := grade.SubjectCore
			if subject == "Art" {
				category = grade.SubjectElective
			}
			g, err := grade.NewGrade(grade.NewGradeParams{
				StudentID: id,
				Subject:   subject,
				Category:  category,
				Score:     score,
			})
			if err != nil {
				return err
			}
			if _, err := led.RecordGrade(g); err != nil {
				return err
			}
		}
	}
	return nil
}

// runDemoBatch drives one recompute pass over every student, the same shape a
// bulk export driver would use.
func runDemoBatch(ctx context.Context, cfg *config.Config, log *slog.Logger, dir *directory.Directory, led *ledger.Ledger) {
	coord := batch.NewCoordinator(log)
	report := coord.Submit(ctx, dir.AllStudents(), []batch.Operation{
		{
			Name: "recompute-averages",
			Run: func(ctx context.Context, s *student.Student) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				led.OverallAverage(s.ID)
				led.CoreAverage(s.ID)
				led.ElectiveAverage(s.ID)
				return nil
			},
		},
	}, batch.Options{
		Concurrency:   cfg.Batch.Concurrency,
		Timeout:       cfg.Batch.Timeout,
		RetryAttempts: cfg.Batch.RetryAttempts,
		RetryDelay:    cfg.Batch.RetryDelay,
	})

	if report.TimedOut {
		log.Warn("demo batch hit its deadline",
			"completed", report.Completed,
			"cancelled", report.Cancelled,
		)
	}
	for _, s := range dir.TopPerformers(3) {
		log.Info("top performer",
			"student_id", s.ID,
			"name", s.Name,
			"gpa", s.GPA,
			"average", s.Average,
		)
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
