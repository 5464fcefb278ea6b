package resolver

import (
	"reflect"
	"strconv"
	"testing"
)

func TestResolveFlattensNestedSets(t *testing.T) {
	r := New(map[string][]string{
		"all-servers": {"web", "db-host", "web"},
		"web":         {"web-1", "web-2"},
	})

	got := r.Resolve("all-servers")
	want := []string{"web-1", "web-2", "db-host"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	assertLeaves(t, r, got)
}

func TestResolveLeafIsIdentity(t *testing.T) {
	r := New(map[string][]string{"S": {"a"}})
	got := r.Resolve("host-1")
	if len(got) != 1 || got[0] != "host-1" {
		t.Fatalf("expected leaf to resolve to itself, got %v", got)
	}
}

func TestResolveTerminatesOnCycle(t *testing.T) {
	table := map[string][]string{
		"A": {"a1", "B"},
		"B": {"b1", "A"},
	}
	first := New(table).Resolve("A")
	second := New(table).Resolve("A")

	want := []string{"a1", "b1"}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("expected %v, got %v", want, first)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic result, got %v then %v", first, second)
	}
}

func TestResolveSelfReference(t *testing.T) {
	r := New(map[string][]string{"loop": {"loop", "x"}})
	got := r.Resolve("loop")
	if !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("expected [x], got %v", got)
	}
}

func TestResolveMemoizesPartialCycleMembers(t *testing.T) {
	r := New(map[string][]string{
		"A": {"B"},
		"B": {"b1", "A"},
	})
	r.Resolve("A")
	// B was first reached while A was open, so it keeps the partial result.
	if got := r.Resolve("B"); !reflect.DeepEqual(got, []string{"b1"}) {
		t.Fatalf("expected cached partial [b1], got %v", got)
	}
}

func TestResolveDeepChainDoesNotRecurse(t *testing.T) {
	table := make(map[string][]string)
	const depth = 20000
	for i := 0; i < depth; i++ {
		table[name(i)] = []string{name(i + 1)}
	}
	got := New(table).Resolve(name(0))
	if len(got) != 1 || got[0] != name(depth) {
		t.Fatalf("expected single leaf %s, got %v", name(depth), got)
	}
}

func TestResolveAllDeduplicates(t *testing.T) {
	r := New(map[string][]string{
		"S1": {"h1", "h2"},
		"S2": {"h2", "h3"},
	})
	got := r.ResolveAll([]string{"S1", "S2", "h1", "lit"})
	want := []string{"h1", "h2", "h3", "lit"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func assertLeaves(t *testing.T, r *Resolver, names []string) {
	t.Helper()
	for _, n := range names {
		if r.IsSet(n) {
			t.Errorf("resolved result contains set name %q", n)
		}
	}
}

func name(i int) string {
	return "set-" + strconv.Itoa(i)
}
