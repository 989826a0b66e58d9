// Package observer records what happens while a pipeline runs.
//
// Observers are the only mutable part of a pipeline execution. A Registry
// holding them is shared by pointer across one container lineage, so units
// that run on derived containers (isolated sets, loop iterations, nested
// sequences) report into the same logs.
//
// Provided observers:
//
//   - ActionsLog  – ordered Name_start / Name_end records
//   - Timing      – elapsed time per unit
//   - Progress    – aggregated counters with change callback
//   - Diff        – unified diff of keyed values changed by a unit
//
// Filter wraps any observer with allow/block lists.
package observer
