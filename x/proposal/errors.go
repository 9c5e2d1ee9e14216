package proposal

import "github.com/keyward/keyward/errors"

// proposal takes 130-149
var (
	ErrAlreadyVoted        = errors.Register(130, "already voted")
	ErrVotingWindowExpired = errors.Register(131, "voting window expired")
	ErrAlreadyExecuted     = errors.Register(132, "already executed")
	ErrNotApproved         = errors.Register(133, "not approved")
)
