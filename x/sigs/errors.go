package sigs

import "github.com/keyward/keyward/errors"

// x/sigs reserves 150 ~ 159.
var (
	ErrInvalidSignature = errors.Register(150, "invalid signature")
	ErrDuplicateSigner  = errors.Register(151, "duplicate signer")
	ErrInvalidSequence  = errors.Register(152, "invalid sequence number")
)
