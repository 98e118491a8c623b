package negotiation

import (
	"context"
	"sync"
	"time"

	"github.com/handoffapp/handoff/handoff/timeutil"
)

// DefaultCountdownInterval is how often remaining-time strings are
// recomputed.
const DefaultCountdownInterval = time.Minute

// TimerSupervisor runs the named countdown tasks for one negotiation view:
// the meeting-time countdown and the payment-deadline countdown are
// independent subjects. Each countdown republishes its remaining-time string
// on every tick, publishes the terminal string exactly once when the target
// passes, and then stops. Stop and StopAll cancel deterministically.
type TimerSupervisor struct {
	mu       sync.Mutex
	timers   map[string]*countdownHandle
	interval time.Duration
	nowFn    func() time.Time
}

// countdownHandle identifies one countdown goroutine. A finished goroutine
// deregisters only its own handle, so a restart under the same name is never
// torn down by the goroutine it replaced.
type countdownHandle struct {
	cancel context.CancelFunc
}

func NewTimerSupervisor(interval time.Duration) *TimerSupervisor {
	if interval <= 0 {
		interval = DefaultCountdownInterval
	}
	return &TimerSupervisor{
		timers:   make(map[string]*countdownHandle),
		interval: interval,
		nowFn:    time.Now,
	}
}

// Start begins (or restarts) the named countdown toward target. onTick
// receives the formatted remaining-time string, starting immediately.
func (s *TimerSupervisor) Start(ctx context.Context, name string, target time.Time, onTick func(text string)) {
	s.mu.Lock()
	if old, ok := s.timers[name]; ok {
		old.cancel()
	}
	timerCtx, cancel := context.WithCancel(ctx)
	handle := &countdownHandle{cancel: cancel}
	s.timers[name] = handle
	s.mu.Unlock()

	go s.run(timerCtx, name, handle, target, onTick)
}

// Stop cancels the named countdown if it is running.
func (s *TimerSupervisor) Stop(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.timers[name]; ok {
		h.cancel()
		delete(s.timers, name)
	}
}

// StopAll cancels every countdown owned by the supervisor.
func (s *TimerSupervisor) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, h := range s.timers {
		h.cancel()
		delete(s.timers, name)
	}
}

// release deregisters a finished countdown, but only while its handle is
// still the current one for the name.
func (s *TimerSupervisor) release(name string, h *countdownHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.cancel()
	if s.timers[name] == h {
		delete(s.timers, name)
	}
}

// Running reports whether the named countdown is active.
func (s *TimerSupervisor) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

func (s *TimerSupervisor) run(ctx context.Context, name string, h *countdownHandle, target time.Time, onTick func(string)) {
	defer s.release(name, h)

	text, live := timeutil.Remaining(s.nowFn(), target)
	onTick(text)
	if !live {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			text, live := timeutil.Remaining(s.nowFn(), target)
			onTick(text)
			if !live {
				// Terminal string published once; the countdown ends here.
				return
			}
		}
	}
}
