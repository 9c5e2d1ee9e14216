package keywardtest

import (
	"context"
	"time"

	"github.com/keyward/keyward"
)

// Context returns a context with the block height, block time and chain ID
// set, as the application does before calling a handler.
func Context(height int64, now time.Time) keyward.Context {
	ctx := keyward.WithHeight(context.Background(), height)
	ctx = keyward.WithBlockTime(ctx, now)
	return keyward.WithChainID(ctx, "test-chain")
}
