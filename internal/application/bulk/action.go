package bulkapp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tradecomply/backend/internal/domain/bulk"
	"github.com/tradecomply/backend/internal/domain/identity"
)

// Action is a pluggable per-record bulk operation.
//
// Act must create exactly one change record for req.SequenceNumber through
// req.Log, whether it succeeds or fails. Expected failures (authorization,
// validation) become failed change records. A returned error aborts the whole
// run and rolls it back.
type Action interface {
	BulkType() string
	Act(ctx context.Context, req ActRequest) error
}

// ActRequest carries everything an action needs to process one key
type ActRequest struct {
	User           *identity.User
	RecordID       string
	Options        bulk.Options
	Log            *ProcessLogSession
	SequenceNumber int
	Repos          TransactionalRepositories
}

// Registry maps bulk types to actions
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates a registry holding actions
func NewRegistry(actions ...Action) *Registry {
	r := &Registry{actions: make(map[string]Action)}
	for _, a := range actions {
		r.MustRegister(a)
	}
	return r
}

// Register adds an action. Bulk types must be unique.
func (r *Registry) Register(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bulkType := a.BulkType()
	if bulkType == "" {
		return fmt.Errorf("action %T has an empty bulk type", a)
	}
	if _, exists := r.actions[bulkType]; exists {
		return fmt.Errorf("bulk type %q is already registered", bulkType)
	}
	r.actions[bulkType] = a
	return nil
}

// MustRegister is like Register but panics on error
func (r *Registry) MustRegister(a Action) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Lookup finds the action registered for bulkType
func (r *Registry) Lookup(bulkType string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[bulkType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, bulkType)
	}
	return a, nil
}

// Types lists registered bulk types, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.actions))
	for t := range r.actions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
