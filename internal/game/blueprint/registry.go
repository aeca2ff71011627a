package blueprint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Registry is an immutable ID-keyed lookup table of one blueprint kind.
// Construct it once at startup with LoadDirectory; reads are then safe from
// any goroutine because nothing ever writes again.
type Registry[T any] struct {
	items map[string]*T
	ids   []string
}

// NewRegistry builds a Registry from an already-populated map. Intended for
// tests and programmatic setup; production content goes through LoadDirectory.
func NewRegistry[T any](items map[string]*T) *Registry[T] {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &Registry[T]{items: items, ids: ids}
}

// Get returns the definition for id, or (nil, false) when absent.
func (r *Registry[T]) Get(id string) (*T, bool) {
	item, ok := r.items[id]
	return item, ok
}

// IDs returns the sorted IDs of every registered definition.
func (r *Registry[T]) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of registered definitions.
func (r *Registry[T]) Len() int { return len(r.items) }

// All calls fn for every definition in sorted ID order.
func (r *Registry[T]) All(fn func(id string, item *T)) {
	for _, id := range r.ids {
		fn(id, r.items[id])
	}
}

// LoadDirectory reads every *.yaml file in dir, decodes each as one T,
// validates it, and returns a populated Registry keyed by idOf.
//
// Precondition: dir must be a readable directory; idOf must return a
// non-empty unique key per decoded value.
// Postcondition: Returns a non-nil Registry, or an error naming the first
// offending file.
func LoadDirectory[T any](dir string, idOf func(*T) string) (*Registry[T], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("blueprint: reading dir %q: %w", dir, err)
	}

	items := make(map[string]*T)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("blueprint: reading %q: %w", path, err)
		}

		item := new(T)
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(item); err != nil {
			return nil, fmt.Errorf("blueprint: parsing %q: %w", path, err)
		}
		if err := validate.Struct(item); err != nil {
			return nil, fmt.Errorf("blueprint: validating %q: %w", path, err)
		}

		id := idOf(item)
		if id == "" {
			return nil, fmt.Errorf("blueprint: %q has an empty id", path)
		}
		if _, dup := items[id]; dup {
			return nil, fmt.Errorf("blueprint: duplicate id %q in %q", id, path)
		}
		items[id] = item
	}

	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return &Registry[T]{items: items, ids: ids}, nil
}
