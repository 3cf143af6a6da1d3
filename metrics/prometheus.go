package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	rounds       prom.Counter
	emitFailures prom.Counter
	loopStarts   prom.Counter
	loopStops    *prom.CounterVec
	interval     prom.Gauge
	commands     *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		rounds: prom.NewCounter(prom.CounterOpts{
			Namespace: "keypacer",
			Name:      "rounds_total",
			Help:      "Key emits completed by the worker loop",
		}),
		emitFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "keypacer",
			Name:      "emit_failures_total",
			Help:      "Emits that failed and ended a run",
		}),
		loopStarts: prom.NewCounter(prom.CounterOpts{
			Namespace: "keypacer",
			Name:      "loop_starts_total",
			Help:      "Worker loop starts",
		}),
		loopStops: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "keypacer",
			Name:      "loop_stops_total",
			Help:      "Worker loop stops by reason",
		}, []string{"reason"}),
		interval: prom.NewGauge(prom.GaugeOpts{
			Namespace: "keypacer",
			Name:      "interval_seconds",
			Help:      "Interval used for the most recent round",
		}),
		commands: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "keypacer",
			Name:      "commands_total",
			Help:      "Commands handled by name and result",
		}, []string{"command", "result"}),
	}
	reg.MustRegister(pr.rounds, pr.emitFailures, pr.loopStarts, pr.loopStops, pr.interval, pr.commands)
	return pr
}

func (p *PrometheusRecorder) IncRounds()                { p.rounds.Inc() }
func (p *PrometheusRecorder) IncEmitFailures()          { p.emitFailures.Inc() }
func (p *PrometheusRecorder) IncLoopStart()             { p.loopStarts.Inc() }
func (p *PrometheusRecorder) IncLoopStop(reason string) { p.loopStops.WithLabelValues(reason).Inc() }

func (p *PrometheusRecorder) SetInterval(d time.Duration) {
	p.interval.Set(d.Seconds())
}

func (p *PrometheusRecorder) IncCommand(name string, result ResultLabel) {
	p.commands.WithLabelValues(name, string(result)).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics in g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
