package telemetry

// MultiListener fans a single event stream out to several listeners, the
// way a forwarding engine typically wants both a metrics sink and a log
// sink wired at once.
type MultiListener []Listener

func (m MultiListener) OnForwarderStage(e ForwarderStageEvent) {
	for _, l := range m {
		l.OnForwarderStage(e)
	}
}

func (m MultiListener) OnContentTransferring(e ContentTransferringEvent) {
	for _, l := range m {
		l.OnContentTransferring(e)
	}
}

func (m MultiListener) OnContentTransferred(e ContentTransferredEvent) {
	for _, l := range m {
		l.OnContentTransferred(e)
	}
}

func (m MultiListener) OnProxyStart(e ProxyStartEvent) {
	for _, l := range m {
		l.OnProxyStart(e)
	}
}

func (m MultiListener) OnProxyStop(e ProxyStopEvent) {
	for _, l := range m {
		l.OnProxyStop(e)
	}
}

func (m MultiListener) OnProxyFailed(e ProxyFailedEvent) {
	for _, l := range m {
		l.OnProxyFailed(e)
	}
}

func (m MultiListener) OnProxyInvoke(e ProxyInvokeEvent) {
	for _, l := range m {
		l.OnProxyInvoke(e)
	}
}
