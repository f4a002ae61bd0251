package adapters

import "sort"

// Registry is the lookup table from provider key to adapter. It is built
// explicitly at startup and injected where needed: read-only afterwards, so
// safe for concurrent use.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(list ...Adapter) *Registry {
	m := make(map[string]Adapter, len(list))
	for _, a := range list {
		m[a.Key()] = a
	}
	return &Registry{adapters: m}
}

// Get resolves an adapter by provider key. A missing adapter is an expected
// condition: each call site decides whether to fail or degrade.
func (r *Registry) Get(key string) (Adapter, bool) {
	a, ok := r.adapters[key]
	return a, ok
}

// Keys lists the registered provider keys in stable order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default builds the production adapter set.
func Default() *Registry {
	return NewRegistry(
		NewMetaWhatsApp(),
		NewEvolution(),
		NewAwsS3(),
		NewOpenAI(),
	)
}
