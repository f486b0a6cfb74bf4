package client

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scrtlabs/secret-sdk-go/types"
)

var (
	encryptedCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_client_encrypted_calls_total",
			Help: "Number of encrypted contract calls by kind.",
		},
		[]string{"kind"},
	)
	decryptFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_client_decrypt_failures_total",
			Help: "Number of failed attempts to recover encrypted results or errors by stage.",
		},
		[]string{"stage"},
	)
	codeHashCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "secret_client_codehash_cache_total",
			Help: "Number of code hash cache lookups by result.",
		},
		[]string{"result"},
	)
	txRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "secret_client_tx_rejections_total",
			Help: "Number of transactions rejected by the chain.",
		},
	)

	clientCollectors = []prometheus.Collector{
		encryptedCalls,
		decryptFailures,
		codeHashCache,
		txRejections,
	}

	metricsOnce sync.Once
)

// RegisterMetrics registers the client metrics with the given registerer. Only the first call
// has any effect.
func RegisterMetrics(reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		reg.MustRegister(clientCollectors...)
	})
}

func stageForError(err error) string {
	switch types.KindOf(err) {
	case types.KindMessageNotFound:
		return "extract"
	default:
		return "decrypt"
	}
}
