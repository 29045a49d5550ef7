// Package coalesce implements a backward-in-time coalescent simulator.
//
// Starting from a sample of chromosomes drawn from one or more
// interacting populations, the simulator runs a stochastic event loop
// backward in time until every sampled chromosome has coalesced onto a
// single most recent common ancestor across the whole sequence, or until
// a configured end time or event budget is reached. The resulting
// ancestral recombination graph is appended to a tables.Collection
// (nodes, edges, migrations) as the simulation progresses,
// and a separate mutation generator can overlay a point process of
// mutations on the finished graph.
package coalesce
