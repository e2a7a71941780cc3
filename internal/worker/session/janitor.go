package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nearest-locations/internal/worker"
)

// Evictor - хранилище сессий с вытеснением простаивающих
type Evictor interface {
	EvictIdle(now time.Time) int
}

// Janitor периодически закрывает простаивающие сессии
type Janitor struct {
	*worker.BaseWorker
	sessions Evictor
	interval time.Duration
	now      func() time.Time
}

// NewJanitor создает новый Janitor
func NewJanitor(sessions Evictor, interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		BaseWorker: worker.NewBaseWorker("session-janitor", "", logger),
		sessions:   sessions,
		interval:   interval,
		now:        time.Now,
	}
}

// Start запускает воркер
func (j *Janitor) Start(ctx context.Context) error {
	j.Logger().Info("Starting session janitor", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.StopChan():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep выполняет один проход
func (j *Janitor) Sweep() int {
	evicted := j.sessions.EvictIdle(j.now())
	if evicted > 0 {
		j.Logger().Debug("Sweep finished", zap.Int("evicted", evicted))
	}
	return evicted
}
