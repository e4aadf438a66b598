package di

import "github.com/icecave/forwardcore/src/healthprobe"

// HealthProber returns the shared destination health prober, started on
// first use so the scheduler's timers are armed exactly once.
func (con *Container) HealthProber() *healthprobe.ScheduledProber {
	var prober *healthprobe.ScheduledProber
	result := con.get(
		"healthprobe.prober",
		func() (interface{}, error) {
			prober = healthprobe.NewScheduledProber(con.Logger())
			prober.Start()
			return prober, nil
		},
		func() error {
			prober.Dispose()
			return nil
		},
	).(*healthprobe.ScheduledProber)
	return result
}
