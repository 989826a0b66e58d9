package container

import (
	"errors"
	"fmt"

	"github.com/viant/conveyor/model/signature"
)

var (
	// ErrNotFound is returned when no entry matches a query
	ErrNotFound = errors.New("nothing found")
	// ErrAmbiguous is returned when more than one entry matches a query
	ErrAmbiguous = errors.New("found more than one")
)

// LookupError describes failed container lookup
type LookupError struct {
	Kind    error
	Query   signature.Signature
	Matches int
	Present []signature.Signature
}

func (e *LookupError) Error() string {
	if e.Kind == ErrAmbiguous {
		return fmt.Sprintf("failed to find %v: expected one, but found %d; present signatures: %v", e.Query, e.Matches, e.Present)
	}
	return fmt.Sprintf("failed to find %v: %v; present signatures: %v", e.Query, e.Kind, e.Present)
}

func (e *LookupError) Unwrap() error {
	return e.Kind
}

func newLookupError(kind error, query signature.Signature, matches int, present []signature.Signature) *LookupError {
	return &LookupError{Kind: kind, Query: query, Matches: matches, Present: present}
}
