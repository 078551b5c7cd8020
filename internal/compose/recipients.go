package compose

import "github.com/nugget/thane-inbox/internal/identity"

// RecipientSet is an ordered collection of identity ids with set
// semantics: an id appears at most once and keeps the position of its
// first insertion. The zero value is empty and ready to use.
type RecipientSet struct {
	ids   []string
	index map[string]struct{}
}

// NewRecipientSet returns a set holding ids in order, dropping repeats.
func NewRecipientSet(ids ...string) *RecipientSet {
	rs := &RecipientSet{}
	for _, id := range ids {
		rs.AddID(id)
	}
	return rs
}

// Add appends ident unless its id is already present.
func (rs *RecipientSet) Add(ident identity.Identity) bool {
	return rs.AddID(ident.ID)
}

// AddID appends id unless it is empty or already present. It reports
// whether the set changed.
func (rs *RecipientSet) AddID(id string) bool {
	if id == "" || rs.Contains(id) {
		return false
	}
	if rs.index == nil {
		rs.index = make(map[string]struct{})
	}
	rs.index[id] = struct{}{}
	rs.ids = append(rs.ids, id)
	return true
}

// Remove deletes id if present and reports whether it was.
func (rs *RecipientSet) Remove(id string) bool {
	if !rs.Contains(id) {
		return false
	}
	delete(rs.index, id)
	for i, existing := range rs.ids {
		if existing == id {
			rs.ids = append(rs.ids[:i], rs.ids[i+1:]...)
			break
		}
	}
	return true
}

// RemoveLast deletes the most recently added id. It returns the removed
// id, or "" when the set was already empty.
func (rs *RecipientSet) RemoveLast() string {
	if len(rs.ids) == 0 {
		return ""
	}
	last := rs.ids[len(rs.ids)-1]
	rs.ids = rs.ids[:len(rs.ids)-1]
	delete(rs.index, last)
	return last
}

// Contains reports whether id is in the set.
func (rs *RecipientSet) Contains(id string) bool {
	_, ok := rs.index[id]
	return ok
}

// IDs returns a copy of the ids in insertion order.
func (rs *RecipientSet) IDs() []string {
	return append([]string(nil), rs.ids...)
}

// Len returns the number of ids.
func (rs *RecipientSet) Len() int {
	return len(rs.ids)
}

// Reset empties the set.
func (rs *RecipientSet) Reset() {
	rs.ids = nil
	rs.index = nil
}
