package terms

// Term is one customizable vocabulary entry: a default spoken form, the
// stable identifier the rest of the system keys on, and an optional value
// the identifier stands for.
//
// Identifiers are unique within a table and so are default spoken forms.
// Users may rebind the spoken form through an override file; the identifier
// never changes.
type Term[V any] struct {
	DefaultSpokenForm string
	Identifier        string
	Value             V
}

// SpokenDefaults returns the spoken form -> identifier map for a term table.
func SpokenDefaults[V any](table []Term[V]) map[string]string {
	out := make(map[string]string, len(table))
	for _, t := range table {
		out[t.DefaultSpokenForm] = t.Identifier
	}
	return out
}

// ByIdentifier indexes a term table by identifier.
func ByIdentifier[V any](table []Term[V]) map[string]Term[V] {
	out := make(map[string]Term[V], len(table))
	for _, t := range table {
		out[t.Identifier] = t
	}
	return out
}
