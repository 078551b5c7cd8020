package identity

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryDirectory is an in-process Directory backed by a slice. Order
// of insertion is the tie-breaker for equally relevant search hits.
type MemoryDirectory struct {
	mu    sync.RWMutex
	list  []Identity
	index map[string]int
	limit int
}

// NewMemoryDirectory creates a directory holding the given identities.
// limit caps Search results; zero or negative means no cap. Duplicate
// or invalid identities are rejected.
func NewMemoryDirectory(idents []Identity, limit int) (*MemoryDirectory, error) {
	d := &MemoryDirectory{
		index: make(map[string]int, len(idents)),
		limit: limit,
	}
	for _, ident := range idents {
		if err := d.Put(ident); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Put adds an identity, or replaces the one with the same id in place.
func (d *MemoryDirectory) Put(ident Identity) error {
	if err := ident.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if i, ok := d.index[ident.ID]; ok {
		d.list[i] = ident
		return nil
	}
	d.index[ident.ID] = len(d.list)
	d.list = append(d.list, ident)
	return nil
}

// Delete removes an identity. Unknown ids are an error.
func (d *MemoryDirectory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	i, ok := d.index[id]
	if !ok {
		return fmt.Errorf("identity %q not found", id)
	}
	d.list = append(d.list[:i], d.list[i+1:]...)
	delete(d.index, id)
	for j := i; j < len(d.list); j++ {
		d.index[d.list[j].ID] = j
	}
	return nil
}

// FindByID implements Directory.
func (d *MemoryDirectory) FindByID(id string) (Identity, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.index[id]
	if !ok {
		return Identity{}, false, nil
	}
	return d.list[i], true, nil
}

// Search implements Directory. An empty query matches nothing.
func (d *MemoryDirectory) Search(query string) ([]Identity, error) {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	d.mu.RLock()
	type hit struct {
		ident Identity
		score int
	}
	var hits []hit
	for _, ident := range d.list {
		if score := rank(ident, q); score >= 0 {
			hits = append(hits, hit{ident: ident, score: score})
		}
	}
	d.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score < hits[j].score
	})

	if d.limit > 0 && len(hits) > d.limit {
		hits = hits[:d.limit]
	}
	result := make([]Identity, len(hits))
	for i, h := range hits {
		result[i] = h.ident
	}
	return result, nil
}

// All returns every identity in insertion order.
func (d *MemoryDirectory) All() []Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Identity(nil), d.list...)
}

// Len returns the number of identities held.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.list)
}
