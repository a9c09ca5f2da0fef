package metrics

import "time"

// Recorder defines observability hooks for documentation resolutions and the
// forge requests behind them. Implementations must be safe for concurrent use.
type Recorder interface {
	// IncResolution counts a finished resolution by outcome (found, no_config, ...).
	IncResolution(outcome string)
	ObserveResolutionDuration(outcome string, d time.Duration)
	// IncForgeRequest counts a forge API request by forge name and result (ok|error).
	IncForgeRequest(forge, result string)
	IncForgeRetry(forge string)
	SetScanConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncResolution(string)                            {}
func (NoopRecorder) ObserveResolutionDuration(string, time.Duration) {}
func (NoopRecorder) IncForgeRequest(string, string)                  {}
func (NoopRecorder) IncForgeRetry(string)                            {}
func (NoopRecorder) SetScanConcurrency(int)                          {}
