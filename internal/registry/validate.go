package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vk/recgrid/internal/ctxlog"
)

// ValidateRegistry performs a parity check between contracts and factories.
// Every contract default must resolve to a type satisfying the contract, and
// every registered type must satisfy at least one contract.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, c := range r.Contracts() {
		entry := r.contracts[c]
		if entry.defaultName == "" {
			logger.Debug("Contract has no default type.", "contract", c)
			continue
		}
		if _, err := r.Resolve("", c); err != nil {
			errs = append(errs, fmt.Sprintf("contract '%s': default: %v", c, err))
		}
	}

	for key, f := range r.factories {
		v := f()
		if v == nil {
			errs = append(errs, fmt.Sprintf("type '%s': factory returned nil", r.names[key]))
			continue
		}
		matched := false
		for _, entry := range r.contracts {
			if reflect.TypeOf(v).Implements(entry.iface) {
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, fmt.Sprintf("type '%s' (%T) implements no registered contract", r.names[key], v))
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
