package service

import (
	"fmt"
	"sort"
)

// Registry maps short service keys to descriptors. It is built once and
// never mutated.
type Registry struct {
	services map[string]Descriptor
}

// NewRegistry builds a registry, rejecting duplicate keys
func NewRegistry(descriptors ...Descriptor) (Registry, error) {
	services := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if _, dup := services[d.Key()]; dup {
			return Registry{}, fmt.Errorf("duplicate service key %q", d.Key())
		}
		services[d.Key()] = d
	}
	return Registry{services: services}, nil
}

// Lookup returns the descriptor registered under key
func (r Registry) Lookup(key string) (Descriptor, bool) {
	d, ok := r.services[key]
	return d, ok
}

// Keys returns every registered key in sorted order
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r.services))
	for k := range r.services {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Enabled returns the enabled descriptors ordered by key
func (r Registry) Enabled() []Descriptor {
	var out []Descriptor
	for _, k := range r.Keys() {
		if d := r.services[k]; d.Enabled() {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered services
func (r Registry) Len() int {
	return len(r.services)
}
