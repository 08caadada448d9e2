package hooks

import (
	"sort"
	"sync"

	"github.com/cuemby/beacon/pkg/errs"
	"github.com/cuemby/beacon/pkg/events"
)

// Registry holds the full hook set, two incrementally maintained
// indexes (by event kind and by priority), and the dependency DAG
// between hooks.
type Registry struct {
	mu sync.RWMutex

	hooks      map[string]Hook
	byEvent    map[events.Kind]map[string]struct{}
	byPriority map[Priority]map[string]struct{}

	// deps[a] is the set of hooks a depends on (must run before a).
	deps map[string]map[string]struct{}
	// rdeps[b] is the set of hooks that depend on b.
	rdeps map[string]map[string]struct{}
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:      make(map[string]Hook),
		byEvent:    make(map[events.Kind]map[string]struct{}),
		byPriority: make(map[Priority]map[string]struct{}),
		deps:       make(map[string]map[string]struct{}),
		rdeps:      make(map[string]map[string]struct{}),
	}
}

// Register adds hook to the registry, indexing it by every kind it
// triggers on and by its priority. It fails with a Configuration
// error (errs.DuplicateID) if the id is already registered.
func (r *Registry) Register(hook Hook) (string, error) {
	id := hook.ID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hooks[id]; exists {
		return "", errs.DuplicateID
	}

	r.hooks[id] = hook
	for _, kind := range hook.Triggers() {
		if r.byEvent[kind] == nil {
			r.byEvent[kind] = make(map[string]struct{})
		}
		r.byEvent[kind][id] = struct{}{}
	}
	if r.byPriority[hook.Priority()] == nil {
		r.byPriority[hook.Priority()] = make(map[string]struct{})
	}
	r.byPriority[hook.Priority()][id] = struct{}{}

	return id, nil
}

// Unregister removes a hook and every index entry and dependency edge
// referencing it. It returns false if id was not registered.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	hook, exists := r.hooks[id]
	if !exists {
		return false
	}

	delete(r.hooks, id)
	for _, kind := range hook.Triggers() {
		delete(r.byEvent[kind], id)
	}
	delete(r.byPriority[hook.Priority()], id)

	for dep := range r.deps[id] {
		delete(r.rdeps[dep], id)
	}
	delete(r.deps, id)
	for dependent := range r.rdeps[id] {
		delete(r.deps[dependent], id)
	}
	delete(r.rdeps, id)

	return true
}

// Get returns the hook registered under id, if any.
func (r *Registry) Get(id string) (Hook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[id]
	return h, ok
}

// ForEvent returns every hook that triggers on kind.
func (r *Registry) ForEvent(kind events.Kind) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, 0, len(r.byEvent[kind]))
	for id := range r.byEvent[kind] {
		out = append(out, r.hooks[id])
	}
	return out
}

// ByPriority returns every hook registered at priority p.
func (r *Registry) ByPriority(p Priority) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, 0, len(r.byPriority[p]))
	for id := range r.byPriority[p] {
		out = append(out, r.hooks[id])
	}
	return out
}

// All returns every registered hook.
func (r *Registry) All() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		out = append(out, h)
	}
	return out
}

// AddDep records that dependent must run after dependsOn. It fails
// with errs.UnknownHook if either id is unregistered, or
// errs.CycleWouldForm if the edge would introduce a cycle.
func (r *Registry) AddDep(dependent, dependsOn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.hooks[dependent]; !ok {
		return errs.UnknownHook
	}
	if _, ok := r.hooks[dependsOn]; !ok {
		return errs.UnknownHook
	}

	if r.reaches(dependsOn, dependent) {
		return errs.CycleWouldForm
	}

	if r.deps[dependent] == nil {
		r.deps[dependent] = make(map[string]struct{})
	}
	r.deps[dependent][dependsOn] = struct{}{}
	if r.rdeps[dependsOn] == nil {
		r.rdeps[dependsOn] = make(map[string]struct{})
	}
	r.rdeps[dependsOn][dependent] = struct{}{}
	return nil
}

// reaches reports whether from can reach to by following dependency
// edges (from depends on ... depends on to). Caller holds r.mu.
func (r *Registry) reaches(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]struct{}{from: {}}
	stack := []string{from}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		for dep := range r.deps[cur] {
			if dep == to {
				return true
			}
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			stack = append(stack, dep)
		}
	}
	return false
}

// RemoveDep removes the dependency edge a→b (a depends on b), if any.
func (r *Registry) RemoveDep(a, b string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deps[a][b]; !ok {
		return false
	}
	delete(r.deps[a], b)
	delete(r.rdeps[b], a)
	return true
}

// Deps returns the ids hook id directly depends on.
func (r *Registry) Deps(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.deps[id]))
	for dep := range r.deps[id] {
		out = append(out, dep)
	}
	return out
}

// Dependents returns the ids that directly depend on hook id.
func (r *Registry) Dependents(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rdeps[id]))
	for dependent := range r.rdeps[id] {
		out = append(out, dependent)
	}
	return out
}

// ExecutionOrder topologically sorts subset so that every hook
// follows the dependencies it has within subset (dependencies outside
// subset are ignored). Ties within a topological layer are broken by
// priority ascending (Critical first), then by id for determinism.
// Returns errs.CycleDetected if subset contains a cycle.
func (r *Registry) ExecutionOrder(subset []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inSet := make(map[string]struct{}, len(subset))
	for _, id := range subset {
		inSet[id] = struct{}{}
	}

	// inDegree counts only edges whose dependency also lies in subset.
	inDegree := make(map[string]int, len(subset))
	for _, id := range subset {
		n := 0
		for dep := range r.deps[id] {
			if _, ok := inSet[dep]; ok {
				n++
			}
		}
		inDegree[id] = n
	}

	remaining := make(map[string]struct{}, len(subset))
	for _, id := range subset {
		remaining[id] = struct{}{}
	}

	order := make([]string, 0, len(subset))
	for len(remaining) > 0 {
		ready := make([]string, 0)
		for id := range remaining {
			if inDegree[id] == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			return nil, errs.CycleDetected
		}
		sort.Slice(ready, func(i, j int) bool {
			pi, pj := r.priorityOf(ready[i]), r.priorityOf(ready[j])
			if pi != pj {
				return pi < pj
			}
			return ready[i] < ready[j]
		})

		next := ready[0]
		order = append(order, next)
		delete(remaining, next)

		for id := range remaining {
			if _, ok := r.deps[id][next]; ok {
				inDegree[id]--
			}
		}
	}

	return order, nil
}

func (r *Registry) priorityOf(id string) Priority {
	if h, ok := r.hooks[id]; ok {
		return h.Priority()
	}
	return PriorityNormal
}
