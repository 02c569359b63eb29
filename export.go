package typedmap

// Exporter is the flattening capability. Any stored value exposing it
// is rewritten recursively during Export; nested containers built by
// lifting all do.
type Exporter interface {
	Export() map[any]any
}

// Export converts the container, including every nested container
// reachable from it, into plain untyped Go maps. Leaf values are
// carried over unchanged. The plain map is unordered; use Entries for
// the insertion-ordered view.
func (m *Map) Export() map[any]any {
	out := make(map[any]any, len(m.keys))
	for _, k := range m.keys {
		if nested, ok := m.values[k].(Exporter); ok {
			out[k] = nested.Export()
		} else {
			out[k] = m.values[k]
		}
	}
	return out
}
