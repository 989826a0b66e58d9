// Package binding maps unit parameters to container entries.
//
// Parameters are bound by name, by an explicit signature, or by a declared
// location such as name[int](key/amount) or order[model.Order](type).
// Overrides applied to an already built unit take precedence over both.
package binding
