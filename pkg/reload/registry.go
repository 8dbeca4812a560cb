// Package reload coordinates live reloading of mounted layouts. A
// process-wide registry holds the active root controllers weakly and fans a
// reload signal out to whichever of them are still alive.
package reload

import (
	"sync"
	"weak"
)

// Observer is a reload entry point, typically a root controller. Hard
// reloads re-parse the layout from source; soft reloads re-evaluate the
// existing tree after a state or constant change.
type Observer interface {
	ReloadLayout(hard bool)
}

// Registry is a set of weakly-held observers. Registration is idempotent
// and membership never keeps an observer alive: an observer that becomes
// unreachable simply stops appearing in reload fan-outs — there is no
// explicit removal.
type Registry struct {
	mu      sync.Mutex
	entries map[any]func() (Observer, bool)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[any]func() (Observer, bool))}
}

// AddObserver registers o with the registry. Adding the same observer more
// than once is a no-op. The registry holds o through a weak pointer, so
// registration does not extend its lifetime.
func AddObserver[T any, P interface {
	*T
	Observer
}](r *Registry, o P) {
	ptr := weak.Make((*T)(o))
	r.mu.Lock()
	defer r.mu.Unlock()
	// weak.Make returns equal pointers for the same object, which makes the
	// pointer itself the dedup key.
	if _, exists := r.entries[ptr]; exists {
		return
	}
	r.entries[ptr] = func() (Observer, bool) {
		p := ptr.Value()
		if p == nil {
			return nil, false
		}
		return P(p), true
	}
}

// Reload invokes every live observer's reload entry point exactly once.
// Observers collected since registration are dropped from the registry as
// they are discovered; an observer dying between the snapshot and its
// invocation is the backend's no-op to handle, not an error.
func (r *Registry) Reload(hard bool) {
	r.mu.Lock()
	live := make([]Observer, 0, len(r.entries))
	for key, resolve := range r.entries {
		obs, ok := resolve()
		if !ok {
			delete(r.entries, key)
			continue
		}
		live = append(live, obs)
	}
	r.mu.Unlock()

	for _, obs := range live {
		obs.ReloadLayout(hard)
	}
}

// Len reports the number of registered observers still alive.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, resolve := range r.entries {
		if _, ok := resolve(); ok {
			n++
		} else {
			delete(r.entries, key)
		}
	}
	return n
}

// Default is the process-wide registry.
var Default = NewRegistry()

// Register adds an observer to the default registry.
func Register[T any, P interface {
	*T
	Observer
}](o P) {
	AddObserver[T, P](Default, o)
}

// Reload triggers a reload on the default registry.
func Reload(hard bool) {
	Default.Reload(hard)
}
