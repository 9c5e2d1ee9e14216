package crossdomain

import "github.com/keyward/keyward/errors"

// crossdomain takes 160-169
var (
	ErrProofMismatch = errors.Register(160, "proof mismatch")
	ErrStaleSnapshot = errors.Register(161, "stale snapshot")
)
