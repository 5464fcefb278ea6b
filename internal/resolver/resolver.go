// Package resolver flattens named, possibly nested and possibly cyclic sets
// down to their leaf members.
package resolver

// Resolver expands names against one membership table. Results are memoized
// per Resolver, so a Resolver must not outlive the configuration it was built
// from.
type Resolver struct {
	table map[string][]string
	cache map[string][]string
}

func New(table map[string][]string) *Resolver {
	return &Resolver{
		table: table,
		cache: make(map[string][]string),
	}
}

// IsSet reports whether name has an entry in the membership table.
func (r *Resolver) IsSet(name string) bool {
	_, ok := r.table[name]
	return ok
}

type frame struct {
	name   string
	next   int
	leaves []string
	seen   map[string]struct{}
}

func newFrame(name string) *frame {
	return &frame{name: name, seen: make(map[string]struct{})}
}

func (f *frame) add(leaves ...string) {
	for _, l := range leaves {
		if _, ok := f.seen[l]; ok {
			continue
		}
		f.seen[l] = struct{}{}
		f.leaves = append(f.leaves, l)
	}
}

// Resolve returns the distinct leaf members of name in depth-first order.
// A name absent from the table is a leaf and resolves to itself. A set that is
// still being expanded further up the stack contributes only what is already
// cached for it, which is nothing on first encounter, so cycles terminate with
// the partial membership gathered so far.
func (r *Resolver) Resolve(name string) []string {
	if !r.IsSet(name) {
		return []string{name}
	}
	if cached, ok := r.cache[name]; ok {
		return cached
	}

	expanding := map[string]bool{name: true}
	stack := []*frame{newFrame(name)}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		members := r.table[top.name]
		if top.next == len(members) {
			r.cache[top.name] = top.leaves
			delete(expanding, top.name)
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				stack[len(stack)-1].add(top.leaves...)
			}
			continue
		}

		member := members[top.next]
		top.next++
		switch {
		case !r.IsSet(member):
			top.add(member)
		case expanding[member]:
			top.add(r.cache[member]...)
		default:
			if cached, ok := r.cache[member]; ok {
				top.add(cached...)
				continue
			}
			expanding[member] = true
			stack = append(stack, newFrame(member))
		}
	}
	return r.cache[name]
}

// ResolveAll resolves every name in order and concatenates the results,
// dropping duplicates.
func (r *Resolver) ResolveAll(names []string) []string {
	f := newFrame("")
	for _, n := range names {
		f.add(r.Resolve(n)...)
	}
	return f.leaves
}
