// Package pipeline loads declarative pipelines from YAML documents.
//
// A document names a pipeline, optional init values applied when absent and
// a list of steps. A step is either the name of a registered unit ("return"
// stops the pipeline) or a mapping with one of the keys below:
//
//	unit:       registered unit, optionally guarded with inputs (outer: inner)
//	            and outputs (inner: outer) mappings
//	set:        values added to the container
//	alias:      newKey: sourceKey pairs
//	rename:     key: newKey pairs
//	without:    keys to remove
//	when:       condition name (prefix ! negates) or expression, with then/else steps
//	switch:     list of when/then branches and an optional otherwise branch
//	retry:      do steps retried with maxAttempts, delay and untilTrue
//	isolate:    steps run as a side effect, blocking: true waits for them
//	finish:     steps followed by an early exit
//	group:      named group of do steps
//	for:        do steps run for each item of a key, optionally aggregated
//	onSubfield: do steps run against a nested mapping
package pipeline
