package telemetry

import (
	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// LogrusListener writes one structured log entry per event. Stage and
// transfer-progress events are logged at Debug, matching the teacher's
// practice of keeping per-chunk detail out of the default log level; the
// start/stop/failed events are logged at Info/Warn, the level the
// teacher's single end-of-request log line used.
type LogrusListener struct {
	Logger logrus.FieldLogger
}

// NewLogrusListener returns a LogrusListener writing to logger. If logger
// is nil, logrus.StandardLogger() is used.
func NewLogrusListener(logger logrus.FieldLogger) *LogrusListener {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusListener{Logger: logger}
}

func (l *LogrusListener) OnForwarderStage(e ForwarderStageEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id": e.RequestID,
		"stage":      e.Stage.String(),
	}).Debug("forwarder: stage transition")
}

func (l *LogrusListener) OnContentTransferring(e ContentTransferringEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id":  e.RequestID,
		"is_request":  e.IsRequest,
		"total_bytes": humanize.Bytes(uint64(e.TotalBytes)),
		"io_count":    e.IOCount,
	}).Debug("forwarder: content transferring")
}

func (l *LogrusListener) OnContentTransferred(e ContentTransferredEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id":      e.RequestID,
		"is_request":      e.IsRequest,
		"total_bytes":     humanize.Bytes(uint64(e.TotalBytes)),
		"io_count":        e.IOCount,
		"read_time":       e.ReadTime.String(),
		"write_time":      e.WriteTime.String(),
		"first_read_time": e.FirstReadTime.String(),
	}).Debug("forwarder: content transferred")
}

func (l *LogrusListener) OnProxyStart(e ProxyStartEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id": e.RequestID,
		"method":     e.Method,
		"path":       e.Path,
	}).Info("forwarder: proxy start")
}

func (l *LogrusListener) OnProxyStop(e ProxyStopEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id":  e.RequestID,
		"status_code": e.StatusCode,
		"duration":    e.Duration.String(),
	}).Info("forwarder: proxy stop")
}

func (l *LogrusListener) OnProxyFailed(e ProxyFailedEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id": e.RequestID,
		"error_kind": e.ErrorKind,
		"duration":   e.Duration.String(),
	}).Warn("forwarder: proxy failed")
}

func (l *LogrusListener) OnProxyInvoke(e ProxyInvokeEvent) {
	l.Logger.WithFields(logrus.Fields{
		"request_id":     e.RequestID,
		"cluster_id":     e.ClusterID,
		"route_id":       e.RouteID,
		"destination_id": e.DestinationID,
	}).Debug("forwarder: proxy invoke")
}
