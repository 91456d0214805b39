// Package operations runs the pricing pipeline as a sequence of steps:
// load or generate observations, derive the metrics, export the tables and
// persist the run. Steps are ordered by their declared dependencies and every
// transition is published through a StatusBroadcaster as an
// OperationSnapshot.
package operations
