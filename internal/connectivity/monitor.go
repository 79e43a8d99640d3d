// Package connectivity tracks whether the backend is reachable. A Monitor
// polls an injected probe and tells subscribers when the answer flips, so the
// rest of the client can route writes through the offline queue instead of
// guessing from individual request failures.
package connectivity

import (
	"context"
	"sync"
	"time"

	"taskdeck/pkg/log"
)

// State is the two-valued connectivity state.
type State string

const (
	Online  State = "ONLINE"
	Offline State = "OFFLINE"
)

// Probe answers one reachability check. A nil error means online.
type Probe interface {
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Check(ctx context.Context) error { return f(ctx) }

const (
	defaultPollInterval = 10 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// Config configures a Monitor. Zero fields fall back to defaults.
type Config struct {
	PollInterval time.Duration
	ProbeTimeout time.Duration

	// InitialOnline is the state assumed before the first probe completes.
	InitialOnline bool
}

// Monitor polls the probe and fans state changes out to subscribers.
// Subscribers are called synchronously, in registration order, from whichever
// goroutine detected the flip; they must not block.
type Monitor struct {
	probe        Probe
	pollInterval time.Duration
	probeTimeout time.Duration
	l            log.Logger

	mu     sync.Mutex
	online bool
	subs   []func(State)

	cancel  context.CancelFunc
	done    chan struct{}
	trigger chan struct{}
}

// NewMonitor creates a Monitor around the given probe. Call Start to begin
// polling; until then the state only changes via SetOnline and CheckNow.
func NewMonitor(l log.Logger, probe Probe, cfg Config) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	return &Monitor{
		probe:        probe,
		pollInterval: cfg.PollInterval,
		probeTimeout: cfg.ProbeTimeout,
		l:            l,
		online:       cfg.InitialOnline,
		trigger:      make(chan struct{}, 1),
	}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// State returns the current state as its wire value.
func (m *Monitor) State() State {
	if m.Online() {
		return Online
	}
	return Offline
}

// OnChange registers a subscriber for state flips. Registration order is
// notification order.
func (m *Monitor) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// SetOnline forces the state, notifying subscribers on a flip. The poll loop
// will correct it on its next probe if reality disagrees.
func (m *Monitor) SetOnline(online bool) {
	m.setState(context.Background(), online)
}

// CheckNow runs one probe immediately and returns the resulting state.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.probe.Check(probeCtx)
	m.setState(ctx, err == nil)
	if err != nil {
		m.l.Debugf(ctx, "connectivity.Monitor.CheckNow: probe failed: %v", err)
	}
	return err == nil
}

// Kick requests an out-of-band probe from the poll loop. No-op when Start
// has not been called or a kick is already pending.
func (m *Monitor) Kick() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Start launches the poll loop. It probes once right away so callers get an
// accurate state without waiting a full interval.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		m.CheckNow(ctx)

		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckNow(ctx)
			case <-m.trigger:
				m.CheckNow(ctx)
			}
		}
	}()
}

// Stop halts the poll loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (m *Monitor) setState(ctx context.Context, online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(State), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	state := Offline
	if online {
		state = Online
	}
	m.l.Infof(ctx, "connectivity: state changed to %s", state)
	for _, fn := range subs {
		fn(state)
	}
}
