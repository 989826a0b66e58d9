// Package pipeline composes units into pipelines threading an immutable
// container.
//
// Every unit invocation notifies observers on start and end, in stack order,
// whether the unit succeeds or fails. A container with the early-exit flag
// set passes through remaining units without running them. Units run
// synchronously with Run, or under async dispatch with RunAsync or Start, in
// which case side-effect units are fired and forgotten unless blocking.
//
//	approve := pipeline.Sequence(pipeline.AddValue("approved", true), pipeline.Return())
//	p := pipeline.Switch(
//		pipeline.Case(pipeline.Expr("amount < limit"), approve),
//		pipeline.Otherwise(pipeline.AddValue("declined", true)),
//	)
//	out, err := pipeline.RunWith(ctx, p, map[string]interface{}{"amount": 80, "limit": 100})
package pipeline
