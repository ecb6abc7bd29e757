// Package ledger persists pipeline jobs and their step audit trail in SQLite.
//
// The ledger is the single source of truth for job status: pollers read
// directly from it and every mutation (status change, processing merge,
// step event) is one transaction. Status moves only forward, any
// non-terminal status may fail, and terminal jobs are frozen.
//
// Processing results are a fixed schema merged additively, so partial
// results written by early steps survive later failures.
package ledger
