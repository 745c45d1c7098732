package resolver

import "errors"

var (
	// ErrMissingKey indicates a declaration reached the resolver without a
	// logical key. This is a programming error at the registration site, not
	// a recoverable input problem.
	ErrMissingKey = errors.New("resolver: declaration has no logical key")
)
