// Package observability wires benchmark runs to metrics and logs and
// serves them over HTTP.
package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"validator-bench/internal/observability/metrics"
	"validator-bench/internal/service/bench"
)

// RunObserver records run outcomes in Prometheus and the log.
type RunObserver struct {
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRunObserver returns an observer recording into m.
func NewRunObserver(m *metrics.Metrics) *RunObserver {
	return &RunObserver{
		metrics: m,
		logger:  log.With().Str("component", "observer").Logger(),
	}
}

// RunStarted implements bench.Observer.
func (o *RunObserver) RunStarted(library string) {
	o.metrics.RecordRunStart()
}

// RunFinished implements bench.Observer.
func (o *RunObserver) RunFinished(r bench.Result) {
	o.metrics.RecordRunResult(r)

	o.logger.Info().
		Str("library", r.Library).
		Str("runId", r.RunID).
		Float64("messagesPerSecond", r.MessagesPerSecond).
		Float64("cpuUserMs", r.CPUUserMs).
		Float64("cpuSystemMs", r.CPUSystemMs).
		Int64("memoryUsedBytes", r.MemoryUsed).
		Uint64("validationErrors", r.ValidationErrors).
		Msg("Run completed")
}

// RunFailed implements bench.Observer.
func (o *RunObserver) RunFailed(library string, err error) {
	o.metrics.RecordRunFailed()

	o.logger.Error().
		Err(err).
		Str("library", library).
		Msg("Run failed")
}

// BusErrorHandler returns the onError hook for a bus driver: errors are
// counted and logged, never propagated.
func BusErrorHandler(m *metrics.Metrics, logger zerolog.Logger, driver string) func(error) {
	return func(err error) {
		m.RecordBusError(driver)
		logger.Warn().Err(err).Msg("Bus connection error")
	}
}
