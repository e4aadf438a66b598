package di

import "github.com/icecave/forwardcore/src/forwarder"

// Engine returns the shared forwarding engine.
func (con *Container) Engine() *forwarder.Engine {
	return con.get(
		"forwarder.engine",
		func() (interface{}, error) {
			return &forwarder.Engine{
				DefaultBufferPool:      con.BufferPool(),
				DefaultActivityTimeout: con.Config().ActivityTimeout,
			}, nil
		},
		nil,
	).(*forwarder.Engine)
}
