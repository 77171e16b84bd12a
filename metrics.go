package mptree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The counters observe engine calls, not committed state: they increment
// inside the caller's transaction, so work rolled back afterwards still
// counts as an attempt.
var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mptree_mutations_total",
	Help: "Mutation attempts that returned success to the caller",
}, []string{"op"})

var mutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mptree_mutation_errors_total",
	Help: "Mutation attempts that returned an error",
}, []string{"op"})

var rebuiltTrees = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mptree_rebuilt_trees_total",
	Help: "Trees recomputed by rebuild attempts",
})
