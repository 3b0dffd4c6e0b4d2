// Package simulation plays batches of games with automated players.
//
// Each game of a batch gets a seed derived from the batch seed, and results
// are kept in game order, so a batch is reproducible regardless of how many
// workers run it. Finished games can be written to the results store under
// a shared run ID.
package simulation
