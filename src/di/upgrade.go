package di

import "github.com/icecave/forwardcore/src/forwarder"

// UpgradeDialer returns the shared protocol-upgrade dialer, used by
// RequestContext.UpgradeDialer to make WebSocket/upgrade forwarding
// reachable from the demo binary instead of silently falling back to
// normal forwarding for every upgrade-eligible request.
func (con *Container) UpgradeDialer() forwarder.UpgradeDialer {
	return con.get(
		"forwarder.upgrade-dialer",
		func() (interface{}, error) {
			return &forwarder.DefaultUpgradeDialer{}, nil
		},
		nil,
	).(forwarder.UpgradeDialer)
}
