package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(tasksSubmittedTotal) }

var tasksSubmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pipeline_tasks_submitted_total",
		Help: "Total number of worker tasks submitted, labeled by task name and outcome.",
	},
	[]string{"task", "status"}, // 'ok', 'encode_error', 'transport_error'
)

func IncTaskSubmitted(task, status string) {
	tasksSubmittedTotal.WithLabelValues(norm(task), norm(status)).Inc()
}
