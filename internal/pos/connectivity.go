package pos

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Monitor is the explicit connectivity input driving the orchestrator.
// Events delivers a value per state transition, true meaning online.
type Monitor interface {
	Online() bool
	Events() <-chan bool
}

// PollingMonitor probes an HTTP endpoint at a fixed interval and reports
// transitions. It substitutes for platform connectivity events.
type PollingMonitor struct {
	url      string
	interval time.Duration
	client   *http.Client
	online   atomic.Bool
	events   chan bool
}

func NewPollingMonitor(url string, interval time.Duration) *PollingMonitor {
	return &PollingMonitor{
		url:      url,
		interval: interval,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		events: make(chan bool, 1),
	}
}

func (m *PollingMonitor) Online() bool {
	return m.online.Load()
}

func (m *PollingMonitor) Events() <-chan bool {
	return m.events
}

// Run probes until the context is cancelled. The first probe runs
// immediately so startup state is known before the orchestrator decides
// whether to sync.
func (m *PollingMonitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *PollingMonitor) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return
	}

	online := false
	if resp, err := m.client.Do(req); err == nil {
		resp.Body.Close()
		online = resp.StatusCode < 500
	}

	if m.online.Swap(online) != online {
		select {
		case m.events <- online:
		default: // a pending unread transition is superseded
			select {
			case <-m.events:
			default:
			}
			m.events <- online
		}
	}
}
