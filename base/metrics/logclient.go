package metrics

import (
	"github.com/x-xyz/gatemarket/base/log"
)

// logClient stands in for statsd when no agent is configured, every sample goes to the debug log
type logClient struct{}

func (logClient) emit(kind, name string, value interface{}, tags []string) error {
	log.Log().WithFields(log.Fields{"metric": name, "value": value, "tags": tags}).Debug(kind)
	return nil
}

func (l logClient) Gauge(name string, value float64, tags []string, _ float64) error {
	return l.emit("gauge", name, value, tags)
}

func (l logClient) Count(name string, value int64, tags []string, _ float64) error {
	return l.emit("count", name, value, tags)
}

func (l logClient) Histogram(name string, value float64, tags []string, _ float64) error {
	return l.emit("histogram", name, value, tags)
}

func (l logClient) TimeInMilliseconds(name string, value float64, tags []string, _ float64) error {
	return l.emit("timing", name, value, tags)
}
