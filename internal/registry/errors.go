package registry

import "fmt"

// TypeNotFoundError is returned when no factory is registered under a name.
type TypeNotFoundError struct {
	Name     string
	Contract Contract
}

func (e *TypeNotFoundError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("no type given for %s and the contract has no default", e.Contract)
	}
	return fmt.Sprintf("type '%s' not found (expected a %s)", e.Name, e.Contract)
}

// TypeMismatchError is returned when a registered type does not satisfy the
// contract of the slot it was configured for.
type TypeMismatchError struct {
	Name     string
	Contract Contract
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type '%s' (%s) does not implement %s", e.Name, e.Actual, e.Contract)
}
