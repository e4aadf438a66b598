package di

import "github.com/icecave/forwardcore/src/cmd"

// Config returns the process configuration loaded from the environment.
func (con *Container) Config() *cmd.Config {
	return con.get(
		"config",
		func() (interface{}, error) {
			return cmd.GetConfigFromEnvironment(), nil
		},
		nil,
	).(*cmd.Config)
}
