package recording

import (
	"time"

	"go.uber.org/zap"
)

// Janitor reaps sessions whose connection went away without a clean
// disconnect. It drives stale sessions through the normal disconnect
// path, so buffer cleanup stays in one place.
type Janitor struct {
	manager  *Manager
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewJanitor creates a janitor that abandons sessions older than maxAge,
// checking every interval.
func NewJanitor(manager *Manager, maxAge, interval time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		manager:  manager,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background reaping process
func (j *Janitor) Start() {
	go j.reapLoop()
	j.logger.Info("Session janitor started",
		zap.Duration("maxAge", j.maxAge),
		zap.Duration("interval", j.interval))
}

// Stop gracefully stops the janitor
func (j *Janitor) Stop() {
	close(j.stopChan)
	j.logger.Info("Session janitor stopped")
}

func (j *Janitor) reapLoop() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			if n := j.manager.Abandon(j.maxAge); n > 0 {
				j.logger.Info("Reaped stale sessions", zap.Int("count", n))
			}
		}
	}
}
