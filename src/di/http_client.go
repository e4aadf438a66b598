package di

import "github.com/icecave/forwardcore/src/forwarder"

// HTTPClient returns the shared outbound client used for every non-upgrade
// forwarded request.
func (con *Container) HTTPClient() forwarder.HTTPClient {
	return con.get(
		"forwarder.http-client",
		func() (interface{}, error) {
			return forwarder.NewHTTPClient(con.Config().InsecureSkipVerify)
		},
		nil,
	).(forwarder.HTTPClient)
}

// BufferPool returns the process-wide buffer pool shared by every
// StreamCopier.
func (con *Container) BufferPool() *forwarder.BufferPool {
	return con.get(
		"forwarder.buffer-pool",
		func() (interface{}, error) {
			return forwarder.NewBufferPool(forwarder.DefaultBufferSize), nil
		},
		nil,
	).(*forwarder.BufferPool)
}

// TransformPipeline returns the default request/response transform
// pipeline, configured to append X-Forwarded-* defaults per the process
// configuration.
func (con *Container) TransformPipeline() *forwarder.TransformPipeline {
	return con.get(
		"forwarder.transforms",
		func() (interface{}, error) {
			return &forwarder.TransformPipeline{
				UseDefaultForwarded: con.Config().UseDefaultForwardedHeaders,
			}, nil
		},
		nil,
	).(*forwarder.TransformPipeline)
}
