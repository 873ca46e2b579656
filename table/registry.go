package table

import (
	"fmt"

	"github.com/goliatone/go-hsm"
)

// HandlerRegistry stores the callbacks a table may reference by name.
type HandlerRegistry[SM, M any] struct {
	process map[string]hsm.ProcessFn[SM, M]
	enter   map[string]hsm.EnterFn[SM, M]
	exit    map[string]hsm.ExitFn[SM, M]
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry[SM, M any]() *HandlerRegistry[SM, M] {
	return &HandlerRegistry[SM, M]{
		process: make(map[string]hsm.ProcessFn[SM, M]),
		enter:   make(map[string]hsm.EnterFn[SM, M]),
		exit:    make(map[string]hsm.ExitFn[SM, M]),
	}
}

// RegisterProcess stores a process handler by name.
func (r *HandlerRegistry[SM, M]) RegisterProcess(name string, fn hsm.ProcessFn[SM, M]) error {
	if name == "" || fn == nil {
		return nil
	}
	if _, exists := r.process[name]; exists {
		return fmt.Errorf("process handler %s already registered", name)
	}
	r.process[name] = fn
	return nil
}

// RegisterEnter stores an enter callback by name.
func (r *HandlerRegistry[SM, M]) RegisterEnter(name string, fn hsm.EnterFn[SM, M]) error {
	if name == "" || fn == nil {
		return nil
	}
	if _, exists := r.enter[name]; exists {
		return fmt.Errorf("enter handler %s already registered", name)
	}
	r.enter[name] = fn
	return nil
}

// RegisterExit stores an exit callback by name.
func (r *HandlerRegistry[SM, M]) RegisterExit(name string, fn hsm.ExitFn[SM, M]) error {
	if name == "" || fn == nil {
		return nil
	}
	if _, exists := r.exit[name]; exists {
		return fmt.Errorf("exit handler %s already registered", name)
	}
	r.exit[name] = fn
	return nil
}

// LookupProcess retrieves a process handler by name.
func (r *HandlerRegistry[SM, M]) LookupProcess(name string) (hsm.ProcessFn[SM, M], bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.process[name]
	return fn, ok
}

// LookupEnter retrieves an enter callback by name.
func (r *HandlerRegistry[SM, M]) LookupEnter(name string) (hsm.EnterFn[SM, M], bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.enter[name]
	return fn, ok
}

// LookupExit retrieves an exit callback by name.
func (r *HandlerRegistry[SM, M]) LookupExit(name string) (hsm.ExitFn[SM, M], bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.exit[name]
	return fn, ok
}
