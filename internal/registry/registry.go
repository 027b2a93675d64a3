package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
)

// Contract names a capability interface a configured type must satisfy.
type Contract string

// Factory creates a fresh, unconfigured instance of a registered type.
type Factory func() any

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

type contractEntry struct {
	iface       reflect.Type
	defaultName string
}

// Registry holds the registered factories and contracts for a single
// application instance. It is populated once at startup and only read
// afterwards.
type Registry struct {
	factories map[string]Factory
	names     map[string]string
	contracts map[Contract]*contractEntry
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		names:     make(map[string]string),
		contracts: make(map[Contract]*contractEntry),
	}
}

// InterfaceOf returns the reflect.Type of the interface T.
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register installs a factory under a type name. Names are matched
// case-insensitively.
func (r *Registry) Register(name string, f Factory) {
	key := normalize(name)
	if key == "" {
		panic("type name must not be empty")
	}
	if _, exists := r.factories[key]; exists {
		panic(fmt.Sprintf("type with name '%s' already registered", name))
	}
	slog.Debug("Registering type.", "name", name)
	r.factories[key] = f
	r.names[key] = name
}

// RegisterContract registers the interface a configuration slot expects and
// the type name used when the configuration names none.
func (r *Registry) RegisterContract(c Contract, iface reflect.Type, defaultName string) {
	if iface == nil || iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("contract '%s' must be an interface type", c))
	}
	if _, exists := r.contracts[c]; exists {
		panic(fmt.Sprintf("contract '%s' already registered", c))
	}
	slog.Debug("Registering contract.", "contract", c, "interface", iface.String(), "default", defaultName)
	r.contracts[c] = &contractEntry{iface: iface, defaultName: defaultName}
}

// Resolve instantiates the named type and checks it against the contract.
// An empty name selects the contract's default.
func (r *Registry) Resolve(name string, c Contract) (any, error) {
	entry, ok := r.contracts[c]
	if !ok {
		return nil, fmt.Errorf("contract '%s' is not registered", c)
	}
	if name == "" {
		name = entry.defaultName
	}
	f, ok := r.factories[normalize(name)]
	if !ok {
		return nil, &TypeNotFoundError{Name: name, Contract: c}
	}
	v := f()
	if v == nil || !reflect.TypeOf(v).Implements(entry.iface) {
		return nil, &TypeMismatchError{Name: name, Contract: c, Actual: fmt.Sprintf("%T", v)}
	}
	return v, nil
}

// Build resolves a type name and returns it as T.
func Build[T any](r *Registry, name string, c Contract) (T, error) {
	var zero T
	v, err := r.Resolve(name, c)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Name: name, Contract: c, Actual: fmt.Sprintf("%T", v)}
	}
	return t, nil
}

// Names returns the sorted type names whose instances satisfy the contract.
func (r *Registry) Names(c Contract) []string {
	entry, ok := r.contracts[c]
	if !ok {
		return nil
	}
	var out []string
	for key, f := range r.factories {
		if v := f(); v != nil && reflect.TypeOf(v).Implements(entry.iface) {
			out = append(out, r.names[key])
		}
	}
	sort.Strings(out)
	return out
}

// Contracts returns the registered contracts in sorted order.
func (r *Registry) Contracts() []Contract {
	out := make([]Contract, 0, len(r.contracts))
	for c := range r.contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
