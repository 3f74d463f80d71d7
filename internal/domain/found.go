package domain

import (
	"sync"
	"sync/atomic"
)

// FoundFlag is the single success indicator. It can be set once and never reset.
type FoundFlag struct {
	set      atomic.Bool
	mu       sync.RWMutex
	password string
}

// Set records password and raises the flag. It returns false if the flag was already set.
func (f *FoundFlag) Set(password string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.set.Load() {
		return false
	}
	f.password = password
	f.set.Store(true)
	return true
}

func (f *FoundFlag) IsSet() bool {
	return f.set.Load()
}

// Password returns the reported password, empty until the flag is set
func (f *FoundFlag) Password() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.password
}
