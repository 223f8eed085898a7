package backend

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the single active backend handle. It is a caller-owned
// value, not process-wide state: construct one, pass it where needed, and
// release it with Clear. Switching backends replaces the handle wholesale;
// nothing is carried over from the previous one.
type Registry struct {
	mu     sync.Mutex
	active Backend
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// Set installs b as the active backend, closing any previous one first.
func (r *Registry) Set(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		if err := r.active.Close(); err != nil {
			r.logger.Warn("failed to close previous backend",
				zap.String("type", r.active.Type()), zap.Error(err))
		}
	}
	r.active = b
}

// Clear closes and releases the active backend, if any.
func (r *Registry) Clear() {
	r.Set(nil)
}

// Active returns the current backend handle.
func (r *Registry) Active() (Backend, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != nil
}

// IsConfigured reports whether a backend is set and reachable.
func (r *Registry) IsConfigured(ctx context.Context) bool {
	b, ok := r.Active()
	return ok && b.IsConnected(ctx)
}
