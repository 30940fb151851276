// Package shutdown handles graceful shutdown. It keeps a process-wide flag
// that long running loops can check, and fires registered hooks (closing the
// database, stopping the session sweeper) when a signal arrives.
package shutdown

import (
	"sync"
)

var (
	isShutdown bool
	mu         sync.RWMutex
)

// CheckShutdown reports whether a shutdown is in progress
func CheckShutdown() bool {
	mu.RLock()
	defer mu.RUnlock()
	return isShutdown
}

func setShutdown() {
	mu.Lock()
	isShutdown = true
	mu.Unlock()
}
