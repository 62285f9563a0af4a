package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/x-xyz/gatemarket/base/log"
)

const (
	poolSize = 16 // power of two, indexes are masked
	poolMask = poolSize - 1

	// DdPort is the statsd agent port
	DdPort = 8125

	// samples buffered per client before a flush
	bufferMetrics = 10
)

type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

var (
	poolOnce sync.Once
	poolIdx  int32
	pool     [poolSize]statsCli
)

// dial connects to the agent at datadog_host, without one every sample lands in the debug log
func dial() {
	host := viper.GetString("datadog_host")
	for i := range pool {
		pool[i] = logClient{}
		if host == "" {
			continue
		}
		addr := fmt.Sprintf("%s:%d", host, DdPort)
		cli, err := statsd.NewBuffered(addr, bufferMetrics)
		if err != nil {
			log.Log().WithFields(log.Fields{"addr": addr, "err": err}).Error("statsd unreachable, metrics go to log")
			continue
		}
		pool[i] = cli
	}
}

func nextClient() statsCli {
	poolOnce.Do(dial)
	return pool[atomic.AddInt32(&poolIdx, 1)&poolMask]
}

// DDMetrics sends samples to statsd with a fixed set of base tags
type DDMetrics struct {
	ddTags []string
}

func (dm *DDMetrics) tags(kv []string) []string {
	out := make([]string, 0, len(dm.ddTags)+len(kv)/2)
	out = append(out, dm.ddTags...)
	return append(out, parseTag(kv)...)
}

func report(kind, key string, val float64, err error) {
	if err != nil {
		log.Log().WithFields(log.Fields{"err": err, "key": key, "val": val, "kind": kind}).Error("statsd send failed")
	}
}

func (dm *DDMetrics) BumpAvg(key string, val, rate float64, tags ...string) {
	report("gauge", key, val, nextClient().Gauge(key, val, dm.tags(tags), rate))
}

func (dm *DDMetrics) BumpSum(key string, val, rate float64, tags ...string) {
	report("count", key, val, nextClient().Count(key, int64(val), dm.tags(tags), rate))
}

func (dm *DDMetrics) BumpHistogram(key string, val, rate float64, tags ...string) {
	report("histogram", key, val, nextClient().Histogram(key, val, dm.tags(tags), rate))
}

func (dm *DDMetrics) BumpTime(key string, rate float64, tags ...string) Ender {
	return &timer{start: time.Now(), key: key, tags: dm.tags(tags), rate: rate}
}

// parseTag turns alternating key, value pairs into statsd "key:value" tags
func parseTag(kv []string) []string {
	if kv == nil {
		return nil
	}
	if len(kv)%2 != 0 {
		log.Log().WithField("tags", kv).Panic("tags must come in key, value pairs")
	}
	out := make([]string, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, kv[i]+":"+kv[i+1])
	}
	return out
}

type timer struct {
	start time.Time
	key   string
	tags  []string
	rate  float64
}

func (t *timer) End() {
	ms := float64(time.Since(t.start)) / float64(time.Millisecond)
	report("timing", t.key, ms, nextClient().TimeInMilliseconds(t.key, ms, t.tags, t.rate))
}
