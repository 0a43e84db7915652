package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/config"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/congrats"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/reminder"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/scheduler"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/store"
	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server

	repo   store.Repo
	sched  *scheduler.Scheduler
	orch   *reminder.Orchestrator
	router *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	sched := scheduler.New(log.Named("scheduler"), scheduler.NewMetrics("birthday_bot", reg))

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, sched: sched}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting birthday-reminder-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.TZ),
	)

	loc, err := a.cfg.Location()
	if err != nil {
		a.log.Error("load timezone failed", zap.Error(err))
		return err
	}
	now := func() time.Time { return time.Now().In(loc) }

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath, loc)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, loc)
	a.orch = reminder.New(a.log.Named("reminder"), a.sched, a.repo, a.router, congrats.New(now), now)
	a.router.SetOrchestrator(a.orch)

	// Restore the job set from the database.
	restored, err := a.orch.Rehydrate(ctx)
	if err != nil {
		a.log.Error("rehydrate failed", zap.Error(err))
		return err
	}
	a.log.Info("jobs rehydrated", zap.Int("subscriptions", restored))

	cr, err := a.orch.StartReconciler(ctx, loc)
	if err != nil {
		a.log.Error("start reconciler failed", zap.Error(err))
		return err
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			a.bot.StopReceivingUpdates()
			<-cr.Stop().Done()
			a.sched.Stop()

			// Create a short-lived shutdown context and cancel it immediately after use.
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
