package headers

import (
	"sort"
	"strings"
)

// Entry is a single name/value pair.
type Entry struct {
	Name  string
	Value string
}

type HeaderSet struct {
	entries []Entry
}

func New(entries ...Entry) *HeaderSet {
	h := &HeaderSet{}
	h.entries = append(h.entries, entries...)
	return h
}

// FromMap builds a HeaderSet from a multi-valued map. Keys are sorted since
// maps carry no order.
func FromMap(m map[string][]string) *HeaderSet {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	h := New()
	for _, name := range names {
		for _, v := range m[name] {
			h.Add(name, v)
		}
	}
	return h
}

// Equal reports whether two header names match case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

func (h *HeaderSet) Set(name, value string) {
	kept := h.entries[:0]
	for _, e := range h.entries {
		if !Equal(e.Name, name) {
			kept = append(kept, e)
		}
	}
	h.entries = append(kept, Entry{Name: name, Value: value})
}

func (h *HeaderSet) Add(name, value string) {
	h.entries = append(h.entries, Entry{Name: name, Value: value})
}

// Get returns the first value for name.
func (h *HeaderSet) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	for _, e := range h.entries {
		if Equal(e.Name, name) {
			return e.Value, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (h *HeaderSet) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// Values returns every value stored under name, in order.
func (h *HeaderSet) Values(name string) []string {
	if h == nil {
		return nil
	}
	var out []string
	for _, e := range h.entries {
		if Equal(e.Name, name) {
			out = append(out, e.Value)
		}
	}
	return out
}

func (h *HeaderSet) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Pop removes every entry named name and returns the last removed value.
func (h *HeaderSet) Pop(name string) (string, bool) {
	var (
		value string
		found bool
	)
	kept := h.entries[:0]
	for _, e := range h.entries {
		if Equal(e.Name, name) {
			value = e.Value
			found = true
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
	return value, found
}

// PopPrefix removes every entry whose name starts with prefix.
func (h *HeaderSet) PopPrefix(prefix string) []Entry {
	var removed []Entry
	kept := h.entries[:0]
	for _, e := range h.entries {
		if len(e.Name) >= len(prefix) && Equal(e.Name[:len(prefix)], prefix) {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
	return removed
}

// Merge applies every pair of other with Set semantics.
func (h *HeaderSet) Merge(other map[string]string) {
	names := make([]string, 0, len(other))
	for k := range other {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		h.Set(k, other[k])
	}
}

// Copy returns a new set holding only the first value of each listed name.
func (h *HeaderSet) Copy(names ...string) *HeaderSet {
	out := New()
	for _, name := range names {
		if v, ok := h.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}

func (h *HeaderSet) Clone() *HeaderSet {
	if h == nil {
		return New()
	}
	return New(h.entries...)
}

// Entries returns a copy of the entries in order.
func (h *HeaderSet) Entries() []Entry {
	if h == nil {
		return nil
	}
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *HeaderSet) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Lines renders the set as "Name: value" lines.
func (h *HeaderSet) Lines() []string {
	lines := make([]string, 0, h.Len())
	for _, e := range h.Entries() {
		lines = append(lines, e.Name+": "+e.Value)
	}
	return lines
}

func (h *HeaderSet) String() string {
	return strings.Join(h.Lines(), "\n")
}
