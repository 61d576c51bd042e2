package rag

import "sync"

// Registry is the process-wide map from collection id to its vector
// store handle. A chat request resolves strictly through this map by
// the id the client supplied; there is no "current collection".
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]collection
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]collection),
	}
}

// Register makes a collection chat-capable. Callers register only after
// every segment has been inserted, so a registered collection is always
// fully populated. Re-registering an id overwrites the prior handle.
func (r *Registry) Register(collectionID string, handle collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[collectionID] = handle
}

func (r *Registry) Lookup(collectionID string) (collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.sessions[collectionID]
	return handle, ok
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
