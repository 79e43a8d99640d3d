package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"taskdeck/pkg/log"
)

func TestCheckNowFlipsStateAndNotifies(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	probe := ProbeFunc(func(ctx context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("unreachable")
	})

	m := NewMonitor(log.NewNop(), probe, Config{InitialOnline: true})

	var transitions []State
	m.OnChange(func(s State) { transitions = append(transitions, s) })

	ctx := context.Background()
	if !m.CheckNow(ctx) {
		t.Fatal("expected online while probe healthy")
	}
	if len(transitions) != 0 {
		t.Fatalf("no flip expected, got %v", transitions)
	}

	healthy.Store(false)
	if m.CheckNow(ctx) {
		t.Fatal("expected offline after probe failure")
	}
	healthy.Store(true)
	if !m.CheckNow(ctx) {
		t.Fatal("expected online after recovery")
	}

	want := []State{Offline, Online}
	if len(transitions) != len(want) {
		t.Fatalf("transitions %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions %v, want %v", transitions, want)
		}
	}
}

func TestSetOnlineNotifiesOnlyOnFlip(t *testing.T) {
	m := NewMonitor(log.NewNop(), ProbeFunc(func(ctx context.Context) error { return nil }), Config{})

	var calls int
	m.OnChange(func(State) { calls++ })

	m.SetOnline(true)
	m.SetOnline(true)
	m.SetOnline(false)

	if calls != 2 {
		t.Fatalf("expected 2 notifications (flip up, flip down), got %d", calls)
	}
	if m.State() != Offline {
		t.Fatalf("state = %s, want OFFLINE", m.State())
	}
}

func TestStartProbesImmediately(t *testing.T) {
	probed := make(chan struct{}, 1)
	probe := ProbeFunc(func(ctx context.Context) error {
		select {
		case probed <- struct{}{}:
		default:
		}
		return nil
	})

	m := NewMonitor(log.NewNop(), probe, Config{PollInterval: time.Hour})
	m.Start(context.Background())
	defer m.Stop()

	select {
	case <-probed:
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not probe on start")
	}
	if !m.Online() {
		t.Fatal("expected online after successful startup probe")
	}
}

func TestKickForcesOutOfBandProbe(t *testing.T) {
	var probes atomic.Int32
	probe := ProbeFunc(func(ctx context.Context) error {
		probes.Add(1)
		return nil
	})

	m := NewMonitor(log.NewNop(), probe, Config{PollInterval: time.Hour})
	m.Start(context.Background())
	defer m.Stop()

	deadline := time.After(2 * time.Second)
	for probes.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("startup probe never ran")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	m.Kick()
	deadline = time.After(2 * time.Second)
	for probes.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("kick did not trigger a probe")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestStopTerminatesPollLoop(t *testing.T) {
	m := NewMonitor(log.NewNop(), ProbeFunc(func(ctx context.Context) error { return nil }), Config{PollInterval: 10 * time.Millisecond})
	m.Start(context.Background())
	m.Stop()
	// Stop is idempotent.
	m.Stop()
}
