package oauth

import (
	"sort"

	"github.com/todolist/todo-service/internal/core/domain"
	"github.com/todolist/todo-service/internal/core/ports"
)

// Registry resolves providers by name.
type Registry struct {
	providers map[string]ports.IdentityProvider
}

func NewRegistry(providers ...ports.IdentityProvider) *Registry {
	r := &Registry{providers: make(map[string]ports.IdentityProvider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Get returns domain.ErrUnknownProvider for names that are not registered.
func (r *Registry) Get(name string) (ports.IdentityProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return p, nil
}

// Names lists the registered providers in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
