package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Check names one dependency to watch.
type Check struct {
	Name    string
	Pinger  Pinger
	Timeout time.Duration
}

type Monitor struct {
	checks []Check

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(interval time.Duration, logger *zap.Logger, checks ...Check) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.clone()
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh()
	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh pings every dependency once and stores the result.
func (m *Monitor) Refresh() {
	status := Status{
		Services:  make(map[string]bool, len(m.checks)),
		LastCheck: time.Now(),
	}
	for _, check := range m.checks {
		status.Services[check.Name] = m.ping(check)
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	for name, up := range status.Services {
		if was, seen := previous.Services[name]; seen && was != up {
			if up {
				m.logger.Info("dependency recovered", zap.String("service", name))
			} else {
				m.logger.Warn("dependency unreachable", zap.String("service", name))
			}
		}
	}
}

func (m *Monitor) ping(check Check) bool {
	if check.Pinger == nil {
		return false
	}
	timeout := check.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := check.Pinger.Ping(ctx); err != nil {
		m.logger.Debug("ping failed", zap.String("service", check.Name), zap.Error(err))
		return false
	}
	return true
}
