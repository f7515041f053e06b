package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	indexProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "search_index_products",
		Help: "Number of products currently indexed",
	})

	indexTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "search_index_tokens",
		Help: "Number of distinct tokens in the index",
	})

	indexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_index_build_duration_seconds",
		Help:    "Duration of full index rebuilds in seconds",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	indexSkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_index_skipped_records_total",
		Help: "Catalog records skipped during rebuilds for lacking a product code",
	})

	reindexTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_reindex_total",
		Help: "Full reindex attempts by result",
	}, []string{"result"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "search_query_duration_seconds",
		Help:    "Duration of catalog searches in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_hits_total",
		Help: "Ranked result lists served from the query cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "search_cache_misses_total",
		Help: "Ranked result lists computed because the cache had no fresh entry",
	})
)
