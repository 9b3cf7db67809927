package storage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// Health is the result of the most recent archive check
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Healthy reports whether the last check passed
func (h Health) Healthy() bool {
	return h.Status == HealthStatusHealthy
}

// HealthMonitor periodically pings an Archive and caches the outcome
type HealthMonitor struct {
	archive Archive
	timeout time.Duration
	logger  *zap.SugaredLogger

	mu     sync.RWMutex
	health Health
}

// NewHealthMonitor creates a monitor. Call Check or Start before reading Current.
func NewHealthMonitor(a Archive, timeout time.Duration, logger *zap.SugaredLogger) *HealthMonitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &HealthMonitor{archive: a, timeout: timeout, logger: logger}
}

// Check pings the archive once and records the result
func (m *HealthMonitor) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	h := Health{LastCheck: time.Now(), Status: HealthStatusHealthy, Message: "archive reachable"}
	if err := m.archive.Ping(ctx); err != nil {
		h.Status = HealthStatusUnhealthy
		h.Message = "archive ping failed"
		h.Error = err.Error()
	}

	m.mu.Lock()
	m.health = h
	m.mu.Unlock()

	m.logger.Debugf("updated archive health status: %s", h.Status)
	return h
}

// Current returns the cached result of the last check
func (m *HealthMonitor) Current() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// Start checks immediately and then every interval until ctx is cancelled
func (m *HealthMonitor) Start(ctx context.Context, interval time.Duration) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Check(ctx)
			case <-ctx.Done():
				m.logger.Info("stopping archive health monitor")
				return
			}
		}
	}()
}
