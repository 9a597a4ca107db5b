// Package registry holds the third-party identifiers of one account and their binding state.
// It performs no I/O and is not safe for concurrent use; callers serialize access.
package registry

import (
	"github.com/and161185/discokeeper/internal/errs"
	"github.com/and161185/discokeeper/internal/model"
)

// Registry is an ordered set of Pids keyed by (medium, address).
type Registry struct {
	pids  map[model.PidKey]model.Pid
	order []model.PidKey
}

// New builds a registry seeded with pids. Later duplicates replace earlier ones.
func New(pids ...model.Pid) *Registry {
	r := &Registry{pids: make(map[model.PidKey]model.Pid, len(pids))}
	for _, p := range pids {
		if _, ok := r.pids[p.Key()]; !ok {
			r.order = append(r.order, p.Key())
		}
		r.pids[p.Key()] = p
	}
	return r
}

// Add inserts a new Pid. A zero state is stored as NotShared.
func (r *Registry) Add(p model.Pid) (model.Pid, error) {
	if !p.Medium.Valid() || p.Address == "" {
		return model.Pid{}, errs.ErrInvalidIdentifier
	}
	if _, ok := r.pids[p.Key()]; ok {
		return model.Pid{}, errs.ErrAlreadyExists
	}
	if p.State == "" {
		p.State = model.NotShared
	}
	r.pids[p.Key()] = p
	r.order = append(r.order, p.Key())
	return p, nil
}

// Remove deletes the Pid with key k and returns it.
func (r *Registry) Remove(k model.PidKey) (model.Pid, bool) {
	p, ok := r.pids[k]
	if !ok {
		return model.Pid{}, false
	}
	delete(r.pids, k)
	for i := range r.order {
		if r.order[i] == k {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Get returns the Pid with key k.
func (r *Registry) Get(k model.PidKey) (model.Pid, bool) {
	p, ok := r.pids[k]
	return p, ok
}

// SetState replaces the state of the Pid with key k.
func (r *Registry) SetState(k model.PidKey, s model.SharedState) (model.Pid, error) {
	p, ok := r.pids[k]
	if !ok {
		return model.Pid{}, errs.ErrNotFound
	}
	p.State = s
	r.pids[k] = p
	return p, nil
}

// List returns a copy of all Pids in insertion order.
func (r *Registry) List() []model.Pid {
	out := make([]model.Pid, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.pids[k])
	}
	return out
}

// Pending returns the Pids awaiting verification for bind or unbind.
func (r *Registry) Pending() []model.Pid {
	var out []model.Pid
	for _, k := range r.order {
		if r.pids[k].State.Pending() {
			out = append(out, r.pids[k])
		}
	}
	return out
}

// HasBound reports whether any Pid is Shared.
func (r *Registry) HasBound() bool {
	for _, p := range r.pids {
		if p.State == model.Shared {
			return true
		}
	}
	return false
}

// Len returns the number of Pids.
func (r *Registry) Len() int { return len(r.order) }
