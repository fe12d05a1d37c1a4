package utils

import "sync"

// KeyedMutex provides one mutex per string key. The ingestion pipeline
// uses it to serialize all evaluation for a single device while letting
// different devices proceed in parallel. Mutexes are created lazily and
// kept for the process lifetime; the key space (device IDs) is small
// enough that no eviction is needed.
type KeyedMutex struct {
	locks sync.Map
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

func (km *KeyedMutex) Lock(key string) {
	mu, _ := km.locks.LoadOrStore(key, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
}

func (km *KeyedMutex) Unlock(key string) {
	mu, ok := km.locks.Load(key)
	if !ok {
		return
	}
	mu.(*sync.Mutex).Unlock()
}
