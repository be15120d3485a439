// Package room tracks which room codes are listed as public.
package room

import (
	"slices"
	"strings"
	"sync"
)

// Registry is the in-memory set of public rooms. Every room code not in the
// set is private. The set resets to its defaults on restart.
type Registry struct {
	mu     sync.RWMutex
	public map[string]struct{}
}

func NewRegistry(defaults ...string) *Registry {
	r := &Registry{public: make(map[string]struct{}, len(defaults))}
	for _, code := range defaults {
		r.SetPublic(code)
	}
	return r
}

func (r *Registry) SetPublic(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	r.mu.Lock()
	r.public[code] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) SetPrivate(code string) {
	code = strings.TrimSpace(code)
	r.mu.Lock()
	delete(r.public, code)
	r.mu.Unlock()
}

func (r *Registry) IsPublic(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.public[strings.TrimSpace(code)]
	return ok
}

// ListPublic returns a sorted snapshot of the public room codes.
func (r *Registry) ListPublic() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.public))
	for code := range r.public {
		out = append(out, code)
	}
	r.mu.RUnlock()

	slices.Sort(out)
	return out
}
