// Package metrics records pacing activity. Components take a Recorder and
// default to NoopRecorder; PrometheusRecorder is swapped in when the control
// endpoint is enabled.
package metrics

import "time"

// ResultLabel classifies how a command ended.
type ResultLabel string

const (
	ResultOK       ResultLabel = "ok"
	ResultRejected ResultLabel = "rejected"
	ResultError    ResultLabel = "error"
)

// Recorder defines the observability hooks of the pacer.
type Recorder interface {
	IncRounds()
	IncEmitFailures()
	IncLoopStart()
	IncLoopStop(reason string)
	SetInterval(d time.Duration)
	IncCommand(name string, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncRounds()                     {}
func (NoopRecorder) IncEmitFailures()               {}
func (NoopRecorder) IncLoopStart()                  {}
func (NoopRecorder) IncLoopStop(string)             {}
func (NoopRecorder) SetInterval(time.Duration)      {}
func (NoopRecorder) IncCommand(string, ResultLabel) {}
