package utils

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BackgroundProcessManager owns the long-lived goroutines of the client
// (per-negotiation watch scopes, cache maintenance) with proper lifecycle
// control. Starting a process under a name that is already running replaces
// the old one.
type BackgroundProcessManager struct {
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	processes map[string]context.CancelFunc
	mu        sync.Mutex
}

func NewBackgroundProcessManager() *BackgroundProcessManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundProcessManager{
		ctx:       ctx,
		cancel:    cancel,
		processes: make(map[string]context.CancelFunc),
	}
}

// StartProcess registers and starts a background process.
func (bpm *BackgroundProcessManager) StartProcess(name string, fn func(ctx context.Context)) {
	bpm.mu.Lock()
	if cancel, exists := bpm.processes[name]; exists {
		slog.Warn("Process already exists, stopping existing one", slog.String("name", name))
		cancel()
	}

	processCtx, processCancel := context.WithCancel(bpm.ctx)
	bpm.processes[name] = processCancel
	bpm.mu.Unlock()

	bpm.wg.Add(1)
	go func() {
		defer bpm.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Background process panic",
					slog.String("process", name),
					slog.Any("panic", r))
			}
		}()

		fn(processCtx)
	}()
}

// StopProcess stops a specific background process.
func (bpm *BackgroundProcessManager) StopProcess(name string) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	if cancel, exists := bpm.processes[name]; exists {
		cancel()
		delete(bpm.processes, name)
	}
}

// Shutdown stops all background processes and waits up to timeout.
func (bpm *BackgroundProcessManager) Shutdown(timeout time.Duration) error {
	bpm.cancel()

	done := make(chan struct{})
	go func() {
		bpm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		slog.Warn("Timeout waiting for background processes to stop",
			slog.Duration("timeout", timeout))
		return context.DeadlineExceeded
	}
}

// ProcessCount returns the number of registered processes.
func (bpm *BackgroundProcessManager) ProcessCount() int {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	return len(bpm.processes)
}
