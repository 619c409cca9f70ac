package session

import (
	"github.com/layerdb/layerdb/metrics"
)

var (
	metricOpCount       = metrics.LazyLoadCounterVec("undo_op_count", []string{"op"})
	metricLayerDepth    = metrics.LazyLoadGauge("undo_layer_depth")
	metricCommittedKeys = metrics.LazyLoadCounter("undo_committed_key_count")
)
