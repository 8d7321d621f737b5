package harvest

// Deduplicator tracks admitted URL identities for the lifetime of one
// harvest. Re-rendering can reorder or duplicate already-seen items across
// scroll rounds; at most one record per distinct URL may reach the output.
//
// Not safe for concurrent use; each harvest owns its own instance.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Admit returns true and marks the key the first time a URL is seen, and
// false on every subsequent attempt.
func (d *Deduplicator) Admit(url string) bool {
	if _, dup := d.seen[url]; dup {
		return false
	}
	d.seen[url] = struct{}{}
	return true
}

// Len returns the number of distinct URLs admitted so far.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
