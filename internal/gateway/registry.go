package gateway

import (
	"fmt"

	"payrecon/internal/domain"
)

// Route pairs an adapter with the mapping for its native statuses.
type Route struct {
	Adapter Adapter
	Mapping *Mapping
}

// Registry selects the gateway responsible for a payment method.
type Registry struct {
	mappings map[string]*Mapping
	fallback Route
	routes   map[domain.PaymentMethod]Route
}

// NewRegistry creates a registry that routes every method to def until
// Register overrides it.
func NewRegistry(def Adapter, mappings map[string]*Mapping) (*Registry, error) {
	r := &Registry{
		mappings: mappings,
		routes:   make(map[domain.PaymentMethod]Route),
	}

	route, err := r.route(def)
	if err != nil {
		return nil, err
	}
	r.fallback = route
	return r, nil
}

// Register routes one payment method to a dedicated adapter.
func (r *Registry) Register(method domain.PaymentMethod, adapter Adapter) error {
	if !method.IsValid() {
		return fmt.Errorf("register gateway %q: %w", adapter.Name(), domain.ErrUnknownMethod)
	}

	route, err := r.route(adapter)
	if err != nil {
		return err
	}
	r.routes[method] = route
	return nil
}

// For returns the route for a payment method.
func (r *Registry) For(method domain.PaymentMethod) Route {
	if route, ok := r.routes[method]; ok {
		return route
	}
	return r.fallback
}

func (r *Registry) route(adapter Adapter) (Route, error) {
	mapping, ok := r.mappings[adapter.Name()]
	if !ok {
		return Route{}, fmt.Errorf("no status mapping configured for gateway %q", adapter.Name())
	}
	return Route{Adapter: adapter, Mapping: mapping}, nil
}
