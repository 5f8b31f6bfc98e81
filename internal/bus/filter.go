package bus

// Filter restricts which events reach a listener. The grammar is
// deliberately closed: events match by kind membership, and targeted events
// additionally match by listener id (enforced by the registry, not here).
// The zero value accepts every kind.
type Filter struct {
	// Kinds lists the accepted event kinds; empty accepts all.
	Kinds []Kind
}

// Accepts reports whether the filter lets the event through.
func (f Filter) Accepts(evt Event) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == evt.Kind {
			return true
		}
	}
	return false
}
