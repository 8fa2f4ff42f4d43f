package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(stageTransitionsTotal) }

var stageTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_stage_transitions_total",
		Help: "Total number of attempted project stage transitions, labeled by target stage and result.",
	},
	[]string{"to", "result"}, // 'advanced', 'rejected'
)

func IncStageTransition(to, result string) {
	stageTransitionsTotal.WithLabelValues(norm(to), norm(result)).Inc()
}
