package vault

import "github.com/keyward/keyward/errors"

// vault takes 170-179
var (
	ErrNotOwner            = errors.Register(170, "not the vault owner")
	ErrInsufficientBalance = errors.Register(171, "insufficient vault balance")
)
