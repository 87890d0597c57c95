package metrics

import (
	"time"
)

// RecordSummarization records the outcome and duration of a summarization run.
func RecordSummarization(success bool, duration time.Duration) {
	SummarizationsTotal.WithLabelValues(statusLabel(success)).Inc()
	SummarizationDuration.Observe(duration.Seconds())
}

// RecordSummarizationInput records the size of a run's input and the number
// of map inputs it was split into.
func RecordSummarizationInput(characters, mapInputs int) {
	SummarizationInputSize.Observe(float64(characters))
	MapInputs.Observe(float64(mapInputs))
}

// RecordCollapseRounds records how many collapse rounds a run performed.
func RecordCollapseRounds(rounds int) {
	CollapseRounds.Observe(float64(rounds))
}

// RecordPhaseCall records a single generator invocation.
// Phase is one of "map", "collapse" or "reduce".
func RecordPhaseCall(phase string, success bool, duration time.Duration) {
	PhaseCallsTotal.WithLabelValues(phase, statusLabel(success)).Inc()
	PhaseCallDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordNormalization counts one normalizer invocation.
func RecordNormalization() {
	NormalizationsTotal.Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
