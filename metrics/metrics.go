package metrics

import (
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/celer-network/go-zkrollup/blockproducer"
	"github.com/celer-network/go-zkrollup/types"
)

const (
	namespace = "sequencer"
	subsystem = "block"
)

// NewBlockProducerListener registers the sealed block metrics on reg and
// returns the listener feeding them. The age of the last sealed block is
// computed with c when the metrics are gathered.
func NewBlockProducerListener(reg prometheus.Registerer, c clock.Clock) blockproducer.EventListener {
	var lastSealed atomic.Pointer[types.IncompleteBlock]

	sealedBlocks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sealed_total",
		Help:      "Number of sealed blocks.",
	})
	chunksUsed := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "chunks_used",
		Help:      "Chunks used by the operations of sealed blocks.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	chunksSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "chunks_size",
		Help:      "Block size chosen for the last sealed block.",
	})
	fillRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fill_ratio",
		Help:      "Chunks used over block size of the last sealed block.",
	})
	lastNumber := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "last_sealed_number",
		Help:      "Number of the last sealed block.",
	})
	sealAge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "last_sealed_age_seconds",
		Help:      "Seconds since the last block was sealed.",
	}, func() float64 {
		block := lastSealed.Load()
		if block == nil {
			return 0
		}
		return block.Elapsed(c).Seconds()
	})

	reg.MustRegister(sealedBlocks, chunksUsed, chunksSize, fillRatio, lastNumber, sealAge)

	return &blockproducer.SelectiveListener{
		OnBlockSealedCb: func(block *types.IncompleteBlock) {
			used := block.ChunksUsed()
			sealedBlocks.Inc()
			chunksUsed.Observe(float64(used))
			chunksSize.Set(float64(block.BlockChunksSize))
			if block.BlockChunksSize > 0 {
				fillRatio.Set(float64(used) / float64(block.BlockChunksSize))
			}
			lastNumber.Set(float64(block.BlockNumber))
			lastSealed.Store(block)
		},
	}
}
