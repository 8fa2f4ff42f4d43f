package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueDepth) }

var queueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pipeline_queue_depth",
		Help: "Current number of messages waiting on the broker queue.",
	},
	[]string{"queue"},
)

func SetQueueDepth(queue string, depth int64) {
	queueDepth.WithLabelValues(norm(queue)).Set(float64(depth))
}
