package keyward

import (
	"context"
	"regexp"
	"time"

	"github.com/keyward/keyward/errors"
	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the keyward module

const (
	contextKeyHeight contextKey = iota
	contextKeyChainID
	contextKeyLogger
	contextKeyBlockTime
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()

	// IsValidChainID is the RegExp to ensure valid chain IDs
	IsValidChainID = regexp.MustCompile(`^[a-zA-Z0-9_\-]{6,20}$`).MatchString
)

// Context is just an alias for the standard implementation.
// We use functions to extend it to our domain
type Context = context.Context

// WithHeight sets the block height for the context.
// This can only be set once.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := GetHeight(ctx); ok {
		panic("Height already set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height
// If none was set, returns false
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithBlockTime sets the time of the block that is currently processed.
// This can only be set once.
func WithBlockTime(ctx Context, t time.Time) Context {
	if _, ok := BlockTime(ctx); ok {
		panic("Block time already set")
	}
	return context.WithValue(ctx, contextKeyBlockTime, t)
}

// BlockTime returns current block time as set in the context, or false if
// the time was not set.
func BlockTime(ctx Context) (time.Time, bool) {
	t, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	return t, ok
}

// IsExpired returns true if given time is in the past as compared to the "now"
// as declared for the block. Expiration is inclusive, meaning that if current
// time is equal to the expiration time than this function returns true.
//
// This function panic if the block time is not provided in the context. This
// must never happen. The panic is here to prevent from broken setup to be
// processing data incorrectly.
func IsExpired(ctx Context, t UnixTime) bool {
	return t <= Now(ctx)
}

// Now returns the block time as UnixTime. It panics if the block time was
// not set in the context.
func Now(ctx Context) UnixTime {
	blockNow, ok := BlockTime(ctx)
	if !ok {
		panic("block time is not present")
	}
	return AsUnixTime(blockNow)
}

// WithChainID sets the chain id for the Context.
// panics if called with chain id already set
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("Chain ID already set in Context")
	}
	if !IsValidChainID(chainID) {
		panic(errors.Wrap(errors.ErrInput, "chain id"))
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id
// panics if chain id not already set (should never happen)
func GetChainID(ctx Context) string {
	if x := ctx.Value(contextKeyChainID); x == nil {
		panic("Chain id is not in context")
	}
	return ctx.Value(contextKeyChainID).(string)
}

// WithLogger sets the logger for this Context
func WithLogger(ctx Context, logger log.Logger) Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the currently set logger, or
// DefaultLogger if none was set
func GetLogger(ctx Context) log.Logger {
	val, ok := ctx.Value(contextKeyLogger).(log.Logger)
	if !ok {
		return DefaultLogger
	}
	return val
}

// WithLogInfo accepts keyvalue pairs, and returns another
// context like this, after passing all the keyvals to the
// Logger
func WithLogInfo(ctx Context, keyvals ...interface{}) Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}
