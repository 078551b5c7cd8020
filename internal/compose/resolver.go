package compose

import (
	"fmt"

	"github.com/nugget/thane-inbox/internal/identity"
)

// Resolver drives incremental recipient search. Every call queries the
// directory afresh; results are never cached between calls.
type Resolver struct {
	dir identity.Directory
}

// NewResolver creates a resolver over dir.
func NewResolver(dir identity.Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Search returns the directory's matches for query in the directory's
// own order, minus any id in exclude. No extra cap is applied.
func (r *Resolver) Search(query string, exclude []string) ([]identity.Identity, error) {
	hits, err := r.dir.Search(query)
	if err != nil {
		return nil, fmt.Errorf("search directory: %w", err)
	}
	if len(exclude) == 0 {
		return hits, nil
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	result := make([]identity.Identity, 0, len(hits))
	for _, h := range hits {
		if _, ok := skip[h.ID]; !ok {
			result = append(result, h)
		}
	}
	return result, nil
}

// Exclusions returns the ids already chosen anywhere in d, for passing
// to Search.
func Exclusions(d *Draft) []string {
	return d.AllRecipients()
}
