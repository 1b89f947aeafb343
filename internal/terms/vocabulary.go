package terms

import (
	"maps"
	"slices"
)

// Tables maps a list name to its spoken form -> identifier entries.
type Tables map[string]map[string]string

// Clone returns a deep copy.
func (t Tables) Clone() Tables {
	out := make(Tables, len(t))
	for name, list := range t {
		out[name] = maps.Clone(list)
	}
	return out
}

// ListNames returns the list names in sorted order.
func (t Tables) ListNames() []string {
	return slices.Sorted(maps.Keys(t))
}

// Vocabulary is an immutable snapshot of one domain's merged lists.
type Vocabulary struct {
	domain string
	lists  Tables
}

func newVocabulary(domain string, lists Tables) *Vocabulary {
	return &Vocabulary{domain: domain, lists: lists}
}

// Domain returns the domain the snapshot belongs to.
func (v *Vocabulary) Domain() string {
	return v.domain
}

// Lookup returns the identifier for spoken in the named list.
func (v *Vocabulary) Lookup(list, spoken string) (string, bool) {
	id, ok := v.lists[list][spoken]
	return id, ok
}

// List returns a copy of the named list, or nil when the domain has no such list.
func (v *Vocabulary) List(name string) map[string]string {
	l, ok := v.lists[name]
	if !ok {
		return nil
	}
	return maps.Clone(l)
}

// HasList reports whether the domain defines the named list.
func (v *Vocabulary) HasList(name string) bool {
	_, ok := v.lists[name]
	return ok
}

// ListNames returns the list names in sorted order.
func (v *Vocabulary) ListNames() []string {
	return v.lists.ListNames()
}

// Tables returns a deep copy of all lists.
func (v *Vocabulary) Tables() Tables {
	return v.lists.Clone()
}
