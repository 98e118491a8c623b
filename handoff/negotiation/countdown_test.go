package negotiation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/handoffapp/handoff/handoff/timeutil"
)

func TestCountdownPublishesImmediately(t *testing.T) {
	s := NewTimerSupervisor(time.Hour)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return base }

	got := make(chan string, 1)
	s.Start(context.Background(), "deadline", base.Add(90*time.Second), func(text string) {
		got <- text
	})
	defer s.StopAll()

	select {
	case text := <-got:
		if text != "2m remaining" {
			t.Errorf("expected 2m remaining, got %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("no immediate tick")
	}
}

func TestCountdownPublishesExpiredOnceThenStops(t *testing.T) {
	s := NewTimerSupervisor(5 * time.Millisecond)

	var mu sync.Mutex
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	target := now.Add(time.Minute)
	s.nowFn = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	var ticks []string
	done := make(chan struct{})
	var once sync.Once
	s.Start(context.Background(), "deadline", target, func(text string) {
		mu.Lock()
		ticks = append(ticks, text)
		mu.Unlock()
		if text == timeutil.ExpiredText {
			once.Do(func() { close(done) })
		}
	})

	// Push the clock past the target and wait for the terminal tick.
	mu.Lock()
	now = target.Add(time.Second)
	mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown never expired")
	}

	// Give a stray extra tick the chance to fire if the loop kept running.
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	expired := 0
	for _, text := range ticks {
		if text == timeutil.ExpiredText {
			expired++
		}
	}
	if expired != 1 {
		t.Errorf("expected the terminal string exactly once, got %d", expired)
	}
	if s.Running("deadline") {
		t.Error("countdown must deregister after expiring")
	}
}

func TestCountdownRestartReplacesTimer(t *testing.T) {
	s := NewTimerSupervisor(time.Hour)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return base }

	got := make(chan string, 2)
	s.Start(context.Background(), "meeting", base.Add(time.Hour), func(text string) { got <- text })
	<-got
	s.Start(context.Background(), "meeting", base.Add(2*time.Hour), func(text string) { got <- text })
	defer s.StopAll()

	select {
	case text := <-got:
		if text != "2h 0m remaining" {
			t.Errorf("expected restarted countdown against new target, got %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("restarted countdown never ticked")
	}
}

func TestCountdownSurvivesReplacedTimerExit(t *testing.T) {
	s := NewTimerSupervisor(5 * time.Millisecond)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return base }

	ticks := make(chan string, 64)
	s.Start(context.Background(), "meeting", base.Add(time.Hour), func(text string) { ticks <- text })
	s.Start(context.Background(), "meeting", base.Add(2*time.Hour), func(text string) { ticks <- text })
	defer s.StopAll()

	// Let the replaced goroutine observe its cancellation and exit, then
	// drain whatever arrived so far.
	time.Sleep(30 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}

	if !s.Running("meeting") {
		t.Fatal("replacement countdown was deregistered by the replaced goroutine")
	}

	// The replacement must still be ticking against the new target.
	select {
	case text := <-ticks:
		if text != "2h 0m remaining" {
			t.Errorf("expected ticks against the new target, got %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("replacement countdown stopped ticking after the old goroutine exited")
	}
}

func TestCountdownStop(t *testing.T) {
	s := NewTimerSupervisor(time.Hour)
	s.Start(context.Background(), "meeting", time.Now().Add(time.Hour), func(string) {})

	if !s.Running("meeting") {
		t.Fatal("countdown should be running")
	}
	s.Stop("meeting")
	if s.Running("meeting") {
		t.Error("countdown should be stopped")
	}
}
