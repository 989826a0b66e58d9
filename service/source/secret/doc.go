// Package secret provides pipeline data sources revealing secrets stored with scy,
// and side effects storing them.
package secret
