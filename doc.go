// Package conveyor provides a functional pipeline runtime.
//
// Units transform an immutable, multiply-indexed container and are composed
// with named operators (sequence, switch, retry, handle, isolate, for, ...).
// Pipelines can be built in Go or loaded from YAML documents referencing
// registered units. Observers are notified around every unit invocation.
// With history enabled every run started by the Service is recorded.
//
// End-users typically interact with the runtime via the Service façade
// exposed by the root package:
//
//	srv, _ := conveyor.New(conveyor.WithUnits(approve, decline))
//	aPipeline, _ := srv.LoadPipeline(ctx, "approval.yaml")
//	out, _ := srv.RunWith(ctx, aPipeline.Unit, map[string]interface{}{"amount": 80})
//
// For more details see the individual sub-packages.
package conveyor
