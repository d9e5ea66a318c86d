// Package metrics exports engine counters and device readings to Prometheus.
package metrics

import (
	"reflect"
	"time"

	"github.com/arloliu/go-julabo/device"
	"github.com/arloliu/go-julabo/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "julabo"

var (
	commandsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "commands_total"),
		"Commands written to the device.",
		[]string{"device"}, nil,
	)
	queriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "queries_total"),
		"Queries performed against the device.",
		[]string{"device"}, nil,
	)
	errorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "errors_total"),
		"Failed commands and queries.",
		[]string{"device"}, nil,
	)
	drainedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "drained_bytes_total"),
		"Stale input bytes discarded before queries.",
		[]string{"device"}, nil,
	)
	waitsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "back_pressure_waits_total"),
		"Operations delayed by the inter-command timing floor.",
		[]string{"device"}, nil,
	)
	waitSecondsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "back_pressure_seconds_total"),
		"Time spent waiting for the inter-command timing floor.",
		[]string{"device"}, nil,
	)
	inflightDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "engine", "inflight_queries"),
		"Queries currently holding the transport.",
		[]string{"device"}, nil,
	)
)

// EngineCollector reads the atomic metrics of one engine at scrape time.
type EngineCollector struct {
	name    string
	metrics *protocol.Metrics
}

var _ prometheus.Collector = (*EngineCollector)(nil)

// NewEngineCollector returns a collector for e labelled with device=name.
func NewEngineCollector(name string, e protocol.Engine) *EngineCollector {
	return &EngineCollector{name: name, metrics: e.Metrics()}
}

func (c *EngineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- commandsDesc
	ch <- queriesDesc
	ch <- errorsDesc
	ch <- drainedDesc
	ch <- waitsDesc
	ch <- waitSecondsDesc
	ch <- inflightDesc
}

func (c *EngineCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.metrics
	counter := func(desc *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, c.name)
	}

	counter(commandsDesc, float64(m.CommandCount.Load()))
	counter(queriesDesc, float64(m.QueryCount.Load()))
	counter(errorsDesc, float64(m.ErrCount.Load()))
	counter(drainedDesc, float64(m.DrainedBytes.Load()))
	counter(waitsDesc, float64(m.BackPressureWaits.Load()))
	counter(waitSecondsDesc, time.Duration(m.BackPressureNanos.Load()).Seconds())

	ch <- prometheus.MustNewConstMetric(inflightDesc, prometheus.GaugeValue, float64(m.InflightQueries.Load()), c.name)
}

// Readings publishes the numeric values of device snapshots as gauges.
type Readings struct {
	name   string
	values *prometheus.GaugeVec
	last   prometheus.Gauge
}

// NewReadings returns the gauges for the device called name.
func NewReadings(name string) *Readings {
	return &Readings{
		name: name,
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "device",
			Name:        "attribute_value",
			Help:        "Last value read for a numeric, boolean or enumerated attribute.",
			ConstLabels: prometheus.Labels{"device": name},
		}, []string{"attribute"}),
		last: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "device",
			Name:        "last_snapshot_timestamp_seconds",
			Help:        "Unix time of the last successful snapshot.",
			ConstLabels: prometheus.Labels{"device": name},
		}),
	}
}

func (r *Readings) Describe(ch chan<- *prometheus.Desc) {
	r.values.Describe(ch)
	r.last.Describe(ch)
}

func (r *Readings) Collect(ch chan<- prometheus.Metric) {
	r.values.Collect(ch)
	r.last.Collect(ch)
}

// Observe records a snapshot taken at ts. Text values are skipped.
func (r *Readings) Observe(readings []device.Reading, ts time.Time) {
	for _, rd := range readings {
		if v, ok := toFloat(rd.Value); ok {
			r.values.WithLabelValues(rd.Name).Set(v)
		}
	}
	r.last.Set(float64(ts.UnixNano()) / 1e9)
}

// toFloat converts numbers, booleans and enumerations (integer kinds).
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case nil, string:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}

	return 0, false
}
