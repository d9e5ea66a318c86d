package protocol

import (
	"sync/atomic"
	"time"
)

// Metrics contains atomic metrics of a protocol engine.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// CommandCount indicates the number of commands written.
	CommandCount atomic.Uint64
	// QueryCount indicates the number of queries performed.
	QueryCount atomic.Uint64
	// ErrCount indicates the number of failed commands and queries.
	ErrCount atomic.Uint64
	// DrainedBytes indicates the number of stale bytes discarded before queries.
	DrainedBytes atomic.Uint64
	// BackPressureWaits indicates how many operations had to wait for the timing floor.
	BackPressureWaits atomic.Uint64
	// BackPressureNanos accumulates the time spent waiting for the timing floor.
	BackPressureNanos atomic.Uint64
	// InflightQueries indicates the number of queries holding the transport (0 or 1).
	InflightQueries atomic.Int64
}

func (m *Metrics) incCommandCount() {
	m.CommandCount.Add(1)
}

func (m *Metrics) incQueryCount() {
	m.QueryCount.Add(1)
}

func (m *Metrics) incErrCount() {
	m.ErrCount.Add(1)
}

func (m *Metrics) addDrainedBytes(n int) {
	m.DrainedBytes.Add(uint64(n))
}

func (m *Metrics) addBackPressure(d time.Duration) {
	m.BackPressureWaits.Add(1)
	m.BackPressureNanos.Add(uint64(d))
}

func (m *Metrics) incInflightQueries() {
	m.InflightQueries.Add(1)
}

func (m *Metrics) decInflightQueries() {
	m.InflightQueries.Add(-1)
}
