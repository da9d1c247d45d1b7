package profile

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry keeps the live profile mounts. The least recently touched mount is
// dropped once it's full.
type Registry struct {
	views *lru.Cache[string, *View]
}

func NewRegistry(size int) (*Registry, error) {
	views, err := lru.New[string, *View](size)
	if err != nil {
		return nil, fmt.Errorf("error creating mount cache: %w", err)
	}

	return &Registry{views: views}, nil
}

// Mount starts a fresh view with its own id.
func (r *Registry) Mount() *View {
	v := NewView(uuid.NewString())
	r.views.Add(v.ID, v)

	return v
}

// Remount brings back a dropped mount under its old id, so a page still holding
// that id keeps working. If the id is live again already, that view wins.
func (r *Registry) Remount(id string) *View {
	v := NewView(id)
	if prev, ok, _ := r.views.PeekOrAdd(id, v); ok {
		return prev
	}

	return v
}

// Lookup finds a live mount.
func (r *Registry) Lookup(id string) (*View, bool) {
	return r.views.Get(id)
}

func (r *Registry) Len() int {
	return r.views.Len()
}
