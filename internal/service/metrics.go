package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiblocks_runs_total",
		Help: "Finished runs by status and failure kind.",
	}, []string{"status", "failure_kind"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apiblocks_run_duration_seconds",
		Help:    "Wall time of runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiblocks_calls_total",
		Help: "HTTP calls made by runs, by status class.",
	}, []string{"method", "class"})

	compilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiblocks_compiles_total",
		Help: "Workspace compilations by result code.",
	}, []string{"code"})
)

func statusClass(status int, failed bool) string {
	if failed {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
