package pause

import "github.com/keyward/keyward/errors"

// pause takes 120-129
var ErrVaultPaused = errors.Register(120, "vault paused")
