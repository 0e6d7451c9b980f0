package locks

import (
	"context"
	"sync"
)

// Local is an in-process keyed mutex. It only serializes callers within one
// process; use Redis when running more than one replica.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localKey
}

type localKey struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// NewLocal returns an empty in-process locker.
func NewLocal() *Local {
	return &Local{keys: make(map[string]*localKey)}
}

// Lock implements Locker.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	k, ok := l.keys[key]
	if !ok {
		k = &localKey{ch: make(chan struct{}, 1)}
		l.keys[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, k)
		return func() {}, notAcquired(key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.ch
			l.drop(key, k)
		})
	}, nil
}

func (l *Local) drop(key string, k *localKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.keys, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
