package metrics

// Counter describes a metric that accumulates values monotonically.
// Prometheus counters satisfy this interface directly.
type Counter interface {
	Inc()
	Add(delta float64)
}

// Gauge describes a metric that can go up and down.
type Gauge interface {
	Inc()
	Dec()
	Set(value float64)
}

// NopCounter is a counter that records nothing.
type NopCounter struct{}

func (NopCounter) Inc()        {}
func (NopCounter) Add(float64) {}

// NopGauge is a gauge that records nothing.
type NopGauge struct{}

func (NopGauge) Inc()        {}
func (NopGauge) Dec()        {}
func (NopGauge) Set(float64) {}
