// Package container implements the immutable data carrier threaded through
// pipeline units.
//
// A Container holds ordered entries addressed by signatures (key, type,
// tags). Values can be looked up:
//
//   - by key, with dotted keys walking nested mappings (Get)
//   - by type or tags, as subset queries resolving to one value (GetByType, GetByTags)
//   - by exact signature (GetBySignature)
//   - as zero or more subset matches (Find)
//
// Lookup failures are reported as *LookupError wrapping ErrNotFound or
// ErrAmbiguous.
package container
