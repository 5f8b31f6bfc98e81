package bus

import "sort"

// registry maps listener ids to listener state. It has no lock of its own:
// the Bus mutex is the single mutual-exclusion domain for both the sequence
// counter and the listener table, so dispatch always sees a consistent
// snapshot of active listeners.
type registry struct {
	listeners map[string]*listener
}

func newRegistry() registry {
	return registry{listeners: make(map[string]*listener)}
}

func (r *registry) add(l *listener) error {
	if _, ok := r.listeners[l.id]; ok {
		return ErrDuplicateListener
	}
	r.listeners[l.id] = l
	return nil
}

// remove deletes a listener once it has stopped. Unknown ids are a no-op.
func (r *registry) remove(id string) error {
	l, ok := r.listeners[id]
	if !ok {
		return nil
	}
	if l.state != StateStopped {
		return ErrListenerActive
	}
	delete(r.listeners, id)
	return nil
}

// matching returns the listeners an event should be delivered to. Targeted
// events match only the named listener; broadcasts match every non-stopped
// listener whose filter accepts the kind.
func (r *registry) matching(evt Event) []*listener {
	if evt.Target != "" {
		l, ok := r.listeners[evt.Target]
		if !ok || l.state == StateStopped || !l.filter.Accepts(evt) {
			return nil
		}
		return []*listener{l}
	}
	out := make([]*listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		if l.state == StateStopped || !l.filter.Accepts(evt) {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (r *registry) statuses() []Status {
	out := make([]Status, 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l.statusLocked())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *registry) activeCount() int {
	n := 0
	for _, l := range r.listeners {
		if l.state != StateStopped {
			n++
		}
	}
	return n
}
