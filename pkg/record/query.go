package record

// Predicate selects evidence entries.
type Predicate func(Entry) bool

// First returns the first entry of prop that satisfies pred and carries a
// result.value. Earlier entries win; later matches are never considered.
func First(r Record, prop string, pred Predicate) (Entry, bool) {
	for _, e := range r.Entries(prop) {
		if e.HasValue() && (pred == nil || pred(e)) {
			return e, true
		}
	}
	return Entry{}, false
}

// All returns every entry of prop that satisfies pred and carries a
// result.value, in record order.
func All(r Record, prop string, pred Predicate) []Entry {
	var out []Entry
	for _, e := range r.Entries(prop) {
		if e.HasValue() && (pred == nil || pred(e)) {
			out = append(out, e)
		}
	}
	return out
}

// LatestRelease returns the first element of the releases property, which
// extractors list newest first.
func LatestRelease(r Record) (Entry, bool) {
	releases := r.Entries(PropReleases)
	if len(releases) == 0 {
		return Entry{}, false
	}
	return releases[0], true
}

// FirstString returns the first string result.value of prop.
func FirstString(r Record, prop string) (string, bool) {
	for _, e := range r.Entries(prop) {
		if s, ok := e.StringValue(); ok {
			return s, true
		}
	}
	return "", false
}
