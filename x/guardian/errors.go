package guardian

import "github.com/keyward/keyward/errors"

// guardian takes 110-119
var (
	ErrAlreadyActive          = errors.Register(110, "guardian already active")
	ErrAlreadyPending         = errors.Register(111, "guardian already pending")
	ErrPendingDelayNotElapsed = errors.Register(112, "activation delay not elapsed")
	ErrNotActiveGuardian      = errors.Register(113, "not an active guardian")
)
