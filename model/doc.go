// Package model groups the data types shared by the runtime: signatures
// addressing values, the immutable container threaded through units and the
// run record kept by history stores.
package model
