package pos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollingMonitorReportsTransitions(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewPollingMonitor(server.URL, time.Hour)
	ctx := context.Background()

	m.probe(ctx)
	assert.True(t, m.Online())
	require.Equal(t, true, <-m.Events(), "startup probe reports the first transition")

	// a repeat probe with unchanged state emits nothing
	m.probe(ctx)
	select {
	case v := <-m.Events():
		t.Fatalf("unexpected event %v", v)
	default:
	}

	healthy.Store(false)
	m.probe(ctx)
	assert.False(t, m.Online())
	assert.Equal(t, false, <-m.Events())

	healthy.Store(true)
	m.probe(ctx)
	assert.True(t, m.Online())
	assert.Equal(t, true, <-m.Events())
}

func TestPollingMonitorTreatsUnreachableAsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	m := NewPollingMonitor(server.URL, time.Hour)
	ctx := context.Background()

	m.probe(ctx)
	require.True(t, m.Online())
	<-m.Events()

	server.Close()
	m.probe(ctx)
	assert.False(t, m.Online())
	assert.Equal(t, false, <-m.Events())
}

func TestPollingMonitorSupersedesUnreadTransition(t *testing.T) {
	var healthy atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := NewPollingMonitor(server.URL, time.Hour)
	ctx := context.Background()

	healthy.Store(true)
	m.probe(ctx)
	healthy.Store(false)
	m.probe(ctx)

	// only the latest unread transition survives
	assert.Equal(t, false, <-m.Events())
	select {
	case v := <-m.Events():
		t.Fatalf("unexpected event %v", v)
	default:
	}
}
