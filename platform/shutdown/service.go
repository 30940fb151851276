package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rohanthewiz/logger"
)

const gracePeriod = 15 * time.Second

// HookFunc releases a resource; it is given the grace period it must finish in
type HookFunc func(grace time.Duration) error

type shutdownHooks struct {
	hooks []HookFunc
	lock  sync.Mutex
}

var registry shutdownHooks

// RegisterHook adds fn to the hooks fired on shutdown
func RegisterHook(fn HookFunc) {
	registry.lock.Lock()
	defer registry.lock.Unlock()
	registry.hooks = append(registry.hooks, fn)
	logger.Debug("Registered shutdown hook", "number", len(registry.hooks))
}

// InitShutdownService waits for SIGINT/SIGTERM, fires the hooks and then
// closes done so main can return
func InitShutdownService(done chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)

		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		setShutdown()

		registry.lock.Lock()
		hooks := append([]HookFunc(nil), registry.hooks...)
		registry.lock.Unlock()

		runHooks(hooks, gracePeriod)
		logger.Info("Shutdown service done")
	}()
}

// runHooks fires every hook concurrently and waits up to grace for them.
// It reports whether all hooks returned in time.
func runHooks(hooks []HookFunc, grace time.Duration) bool {
	logger.F("Shutting down %d hooks (grace period is: %s)", len(hooks), grace)

	var wg sync.WaitGroup
	for i, hook := range hooks {
		wg.Add(1)
		go func(n int, hook HookFunc) {
			defer wg.Done()
			if err := hook(grace); err != nil {
				logger.LogErr(err, "shutdown hook failed", "hook", n)
				return
			}
			logger.Debug("Shutdown hook completed", "hook", n)
		}(i, hook)
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		logger.F("All shutdown hooks completed")
		return true
	case <-time.After(grace):
		logger.Warn("Shutdown hooks timed out", "grace", grace.String())
		return false
	}
}
