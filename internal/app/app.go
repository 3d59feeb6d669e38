package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"worry_solver/internal/config"
	"worry_solver/internal/domain"
	"worry_solver/internal/metrics"
	"worry_solver/internal/queue"
	"worry_solver/internal/recordstore"
	"worry_solver/internal/sse"
)

type App struct {
	cfg      *config.Config
	records  *recordstore.Store
	hub      *sse.Hub
	consumer queue.Consumer
	server   *http.Server
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewApp(cfg *config.Config, records *recordstore.Store, hub *sse.Hub, consumer queue.Consumer, router *gin.Engine, m *metrics.Metrics, logger *zap.Logger) *App {
	m.GaugeFunc("records", "Worries currently stored.", func() float64 {
		return float64(records.Len(context.Background()))
	})
	m.GaugeFunc("sse_listeners", "Open reply streams.", func() float64 {
		return float64(hub.Listeners())
	})
	return &App{
		cfg:      cfg,
		records:  records,
		hub:      hub,
		consumer: consumer,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		logger: logger,
	}
}

func (a *App) Run(ctx context.Context) error {
	if err := a.records.Init(ctx); err != nil {
		if !errors.Is(err, domain.ErrStoreCorrupted) {
			return fmt.Errorf("init record store: %w", err)
		}
		a.logger.Warn("record store was corrupt and has been reset",
			zap.String("backup_slot", recordstore.SubmissionsSlot+recordstore.BackupSuffix),
		)
	}
	a.logger.Info("record store ready", zap.Int("records", len(a.records.Codes(ctx))))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.hub.Run(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	a.logger.Info("http server listening", zap.String("addr", a.cfg.HTTPAddr))
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("graceful shutdown started")
	shutdownErr := a.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if err := a.records.Close(); err != nil {
			a.logger.Error("close record store failed", zap.Error(err))
		}
		a.logger.Info("graceful shutdown completed")
		return shutdownErr
	case <-ctx.Done():
		if shutdownErr != nil {
			return shutdownErr
		}
		return ctx.Err()
	}
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.cfg
}
