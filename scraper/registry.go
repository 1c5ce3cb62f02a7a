package scraper

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps platform names to implementations
type Registry struct {
	mu        sync.RWMutex
	platforms map[string]Platform
}

// NewRegistry creates a registry pre-loaded with the given platforms
func NewRegistry(platforms ...Platform) *Registry {
	r := &Registry{platforms: make(map[string]Platform)}
	for _, p := range platforms {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a platform under its lower-cased name
func (r *Registry) Register(p Platform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[strings.ToLower(p.Name())] = p
}

// Get looks a platform up by name, case-insensitively
func (r *Registry) Get(name string) (Platform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPlatform, name, strings.Join(r.namesLocked(), ", "))
	}
	return p, nil
}

// Names lists registered platform names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.platforms))
	for n := range r.platforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
