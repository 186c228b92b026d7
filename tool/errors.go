package tool

import "fmt"

// ErrToolAlreadyRegistered is returned when registering a duplicate tool name.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// ErrToolNotFound is returned when looking up an unregistered tool.
// The gateway never surfaces this to the model as a Go error; it becomes
// an error-tagged result instead.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.Name)
}
