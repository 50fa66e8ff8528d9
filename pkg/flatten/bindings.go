package flatten

import "sort"

// Bindings is the set of variable names proven assigned so far.
// P0 has a single flat scope, so names are never removed.
type Bindings struct {
	names map[string]struct{}
}

func NewBindings() *Bindings {
	return &Bindings{names: make(map[string]struct{})}
}

// Record marks name as assigned. Recording twice is a no-op.
func (b *Bindings) Record(name string) {
	b.names[name] = struct{}{}
}

func (b *Bindings) IsBound(name string) bool {
	_, ok := b.names[name]
	return ok
}

func (b *Bindings) Len() int {
	return len(b.names)
}

// Names returns the bound names in sorted order
func (b *Bindings) Names() []string {
	names := make([]string, 0, len(b.names))
	for name := range b.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
