package di

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger returns the process-wide structured logger.
func (con *Container) Logger() *logrus.Logger {
	return con.get(
		"logger",
		func() (interface{}, error) {
			logger := logrus.New()
			logger.SetOutput(os.Stdout)
			logger.SetFormatter(&logrus.TextFormatter{
				FullTimestamp: true,
			})
			return logger, nil
		},
		nil,
	).(*logrus.Logger)
}
