package typesys

import "fmt"

// Universe is the arena that owns every non-primitive type entity
// constructed during a compilation, plus the bookkeeping needed to
// backpatch forward-declared pointers after each `type` block, per
// spec.md §9's "arena allocation with stable identifiers... resolution
// pass that patches pending names after each type block."
type Universe struct {
	arena    []Type
	byName   map[string]Type   // last `type Name = ...` seen, for forward lookups
	pending  []*PointerType    // pointers awaiting resolution, collected since the last flush
}

func NewUniverse() *Universe {
	return &Universe{byName: make(map[string]Type)}
}

// Declare registers a named type declaration, making it visible to
// later forward-pointer lookups within the same or a later type block.
func (u *Universe) Declare(name string, t Type) {
	u.arena = append(u.arena, t)
	u.byName[name] = t
}

// Intern records an unnamed type entity (e.g. an anonymous array or
// record type) in the arena so it is reachable for diagnostics/dumps,
// without giving it a name binding.
func (u *Universe) Intern(t Type) {
	u.arena = append(u.arena, t)
}

// TrackForwardPointer registers a pointer type that may need
// backpatching once the enclosing `type` block finishes.
func (u *Universe) TrackForwardPointer(p *PointerType) {
	if !p.Resolved() {
		u.pending = append(u.pending, p)
	}
}

// ResolveForwardPointers runs the post-pass spec.md §4.3 describes:
// every pointer collected via TrackForwardPointer since the last call
// is looked up by name in the current name bindings and backpatched.
// It returns every name that could not be resolved.
func (u *Universe) ResolveForwardPointers() []error {
	var errs []error
	for _, p := range u.pending {
		if p.Resolved() {
			continue
		}
		if err := p.resolvePending(func(name string) Type { return u.byName[name] }); err != nil {
			errs = append(errs, fmt.Errorf("%w", err))
		}
	}
	u.pending = u.pending[:0]
	return errs
}

// Lookup returns a previously declared named type, or nil.
func (u *Universe) Lookup(name string) Type { return u.byName[name] }
