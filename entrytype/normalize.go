package entrytype

// Policy selects how leaf value types come out of normalization.
type Policy int

const (
	// Widen replaces literal leaf types with their base primitive:
	// a specific string becomes string, a specific number becomes
	// number, a named byte-slice kind becomes the bytes type.
	Widen Policy = iota
	// Preserve keeps literal leaf types literal.
	Preserve
)

func (p Policy) String() string {
	switch p {
	case Widen:
		return "widen"
	case Preserve:
		return "preserve"
	}
	return "unknown"
}

// Normalize applies the policy to a resolved value type. A nested pair
// collection is normalized element-wise and wrapped in the container
// type; the recursion has no depth limit and terminates because each
// level either descends into a collection or hits a leaf. Leaf types
// other than literals pass through unchanged under both policies.
func Normalize(t Type, policy Policy) Type {
	switch tt := t.(type) {
	case Entries:
		return MapType{Entries: NormalizeEntries(tt, policy)}
	case MapType:
		return MapType{Entries: NormalizeEntries(tt.Entries, policy)}
	case Union:
		arms := make([]Type, len(tt))
		for i, a := range tt {
			arms[i] = Normalize(a, policy)
		}
		return NewUnion(arms...)
	case Literal:
		if policy == Widen {
			return tt.Base
		}
		return tt
	default:
		return t
	}
}

// NormalizeEntries normalizes every pair's value type, keeping key
// patterns and order intact.
func NormalizeEntries(es Entries, policy Policy) Entries {
	out := make(Entries, len(es))
	for i, e := range es {
		out[i] = EntryType{Key: e.Key, Value: Normalize(e.Value, policy)}
	}
	return out
}
