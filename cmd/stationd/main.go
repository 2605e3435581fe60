package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/estacionsur/stationd/internal/config"
	"github.com/estacionsur/stationd/internal/domain/attendance"
	"github.com/estacionsur/stationd/internal/domain/closure"
	"github.com/estacionsur/stationd/internal/domain/hoses"
	"github.com/estacionsur/stationd/internal/domain/intake"
	"github.com/estacionsur/stationd/internal/domain/shifts"
	"github.com/estacionsur/stationd/internal/domain/tanks"
	"github.com/estacionsur/stationd/internal/infra/db"
	httpx "github.com/estacionsur/stationd/internal/infra/http"
	"github.com/estacionsur/stationd/internal/infra/logger"
	"github.com/estacionsur/stationd/internal/infra/notify"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	loc := cfg.Location()

	hoseRepo := hoses.NewRepo(pool)
	tankRepo := tanks.NewRepo(pool)
	intakeRepo := intake.NewRepo(pool)
	shiftRepo := shifts.NewRepo(pool)
	attendanceRepo := attendance.NewRepo(pool, loc)

	if err := hoseRepo.EnsureDefaults(ctx); err != nil {
		log.Error("hose provisioning failed", "err", err)
		return
	}
	if err := tankRepo.EnsureDefaults(ctx); err != nil {
		log.Error("tank provisioning failed", "err", err)
		return
	}
	log.Info("station layout provisioned")

	var notifier shifts.Notifier
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		notifier = tg
		log.Info("telegram notifier enabled", "chat", cfg.Telegram.AdminChatID)
	}

	shiftSvc := shifts.NewService(shiftRepo, hoseRepo, tankRepo, cfg.TankMapping(), loc, log, notifier)
	closureSvc := closure.NewService(shiftRepo, tankRepo, intakeRepo, loc)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, httpx.Deps{
		Shifts:     shiftSvc,
		ShiftStore: shiftRepo,
		Hoses:      hoseRepo,
		Tanks:      tankRepo,
		Intakes:    intakeRepo,
		Closures:   closureSvc,
		Attendance: attendanceRepo,
	})
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
