// Package evaluator evaluates Go-like expressions such as
// "order.total > limit && len(items) > 0" against values resolved on demand.
package evaluator
