// Package di wires together forwarderd's root-level dependencies, adapted
// from the teacher's own di.Container: a lazily-memoizing lookup keyed by
// name, with optional close callbacks invoked when the container itself is
// closed.
//
// Unlike the teacher's version, which held a single mutex for the
// duration of a value's initializer, this Container gives each key its
// own sync.Once. The forwarding engine's dependency graph is deeper than
// the teacher's — Engine needs BufferPool and Config, TelemetryListener
// needs Logger and PrometheusListener — so an initializer for one key
// routinely calls back into the container for another; holding one lock
// across that call would deadlock the first time a getter's initializer
// called another getter.
package di

import (
	"sync"

	"go.uber.org/multierr"
)

// Container stores the root-level application dependencies.
type Container struct {
	mu      sync.Mutex
	onces   map[string]*sync.Once
	values  map[string]interface{}
	closers []func() error
}

// Close cleans up any resources used by dependencies that registered a
// close callback, in registration order. A closer failing does not stop
// the rest from running; their errors are combined with multierr the way
// the teacher's own cmd/honeycomb main combines fallible Docker client
// setup calls, and the combined error is what Close panics with.
func (con *Container) Close() {
	con.mu.Lock()
	closers := con.closers
	con.onces = nil
	con.values = nil
	con.closers = nil
	con.mu.Unlock()

	var err error
	for _, fn := range closers {
		err = multierr.Append(err, fn())
	}
	if err != nil {
		panic(err)
	}
}

func (con *Container) get(
	name string,
	initialize func() (interface{}, error),
	close func() error,
) interface{} {
	con.mu.Lock()
	if con.onces == nil {
		con.onces = make(map[string]*sync.Once)
		con.values = make(map[string]interface{})
	}
	once, ok := con.onces[name]
	if !ok {
		once = &sync.Once{}
		con.onces[name] = once
	}
	con.mu.Unlock()

	once.Do(func() {
		value, err := initialize()
		if err != nil {
			panic(err)
		}

		con.mu.Lock()
		con.values[name] = value
		if close != nil {
			con.closers = append(con.closers, close)
		}
		con.mu.Unlock()
	})

	con.mu.Lock()
	value := con.values[name]
	con.mu.Unlock()
	return value
}
