package entrytype

// Keys computes the union of keys declared across the collection:
// every exact key plus every member a catch-all admits. The result is
// deduplicated and ordered by first appearance. An empty collection
// yields an empty union (no valid keys).
func Keys(es Entries) []any {
	var out []any
	seen := func(k any) bool {
		for _, have := range out {
			if keyEqual(have, k) {
				return true
			}
		}
		return false
	}
	for _, e := range es {
		switch kt := e.Key.(type) {
		case Key:
			if !seen(kt.Value) {
				out = append(out, kt.Value)
			}
		case Catchall:
			for _, m := range kt.Members() {
				if !seen(m) {
					out = append(out, m)
				}
			}
		}
	}
	return out
}

// HasKey reports whether k belongs to the collection's key union.
func HasKey(es Entries, k any) bool {
	for _, e := range es {
		if e.Key.Matches(k) {
			return true
		}
	}
	return false
}

// ExactEntries returns the subset of pairs whose key pattern exactly
// equals one of the requested keys. Catch-all pairs never match here,
// even when their set admits the key. The lookup distributes: each
// requested key is matched independently and the results concatenate
// in collection order. Duplicate exact keys all appear in the result.
func ExactEntries(es Entries, keys ...any) Entries {
	var out Entries
	for _, k := range keys {
		for _, e := range es {
			if ek, ok := e.Key.(Key); ok && keyEqual(ek.Value, k) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Resolve derives the value type for the requested keys: exact pairs
// first, and only when none exist the first catch-all whose set admits
// the key; Never when neither matches. Several requested keys, or
// several exact pairs for the same key, union their normalized value
// types. The exact-over-catch-all order is a precedence rule: a
// specific pair always beats a residual one for the same key.
func Resolve(es Entries, policy Policy, keys ...any) Type {
	arms := make([]Type, 0, len(keys))
	for _, k := range keys {
		arms = append(arms, resolveOne(es, policy, k))
	}
	return NewUnion(arms...)
}

func resolveOne(es Entries, policy Policy, k any) Type {
	if exact := ExactEntries(es, k); len(exact) > 0 {
		arms := make([]Type, len(exact))
		for i, e := range exact {
			arms[i] = Normalize(e.Value, policy)
		}
		return NewUnion(arms...)
	}
	for _, e := range es {
		if _, ok := e.Key.(Catchall); ok && e.Key.Matches(k) {
			return Normalize(e.Value, policy)
		}
	}
	return Never{}
}
