package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prometheusNamespace = "staking"

var (
	instructionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "instructions_total",
		Help:      "Number of executed instructions by name and result",
	}, []string{"instruction", "result"})

	pointsClaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "points_claimed_total",
		Help:      "Number of points redeemed for reward tokens",
	})

	rpcsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: prometheusNamespace,
		Name:      "rpcs_total",
		Help:      "Number of handled gRPC calls by method and status code",
	}, []string{"method", "code"})
)

// Instruction results recorded by RecordInstruction
const (
	ResultCommitted = "committed"
	ResultRejected  = "rejected"
	ResultConflict  = "conflict"
	ResultFailed    = "failed"
)

// RecordInstruction counts an executed instruction
func RecordInstruction(instruction, result string) {
	instructionsTotal.WithLabelValues(instruction, result).Inc()
}

// RecordPointsClaimed counts points redeemed by a committed claim
func RecordPointsClaimed(points uint64) {
	pointsClaimedTotal.Add(float64(points))
}

// RecordRPC counts a handled gRPC call
func RecordRPC(method, code string) {
	rpcsTotal.WithLabelValues(method, code).Inc()
}
