package utils

import (
	"time"

	"github.com/keyward/keyward"
)

// Logging is a decorator that writes a single entry for every transaction
// that passes through. Failed transactions are logged as errors, successful
// check calls as debug and successful deliver calls as info.
type Logging struct{}

var _ keyward.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> error, success -> debug
func (Logging) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Checker) (*keyward.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	var info string
	if err == nil {
		info = res.Log
	}
	logTx(ctx, tx, start, info, err, true)
	return res, err
}

// Deliver logs error -> error, success -> info
func (Logging) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Deliverer) (*keyward.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	var info string
	if err == nil {
		info = res.Log
	}
	logTx(ctx, tx, start, info, err, false)
	return res, err
}

func logTx(ctx keyward.Context, tx keyward.Tx, start time.Time, info string, err error, check bool) {
	logger := keyward.GetLogger(ctx).With(
		"path", msgPath(tx),
		"duration_us", time.Since(start)/time.Microsecond,
	)
	switch {
	case err != nil:
		logger.Error(info, "err", err)
	case check:
		logger.Debug(info)
	default:
		logger.Info(info)
	}
}

// msgPath returns the route of the transaction message or a placeholder when
// the message cannot be read.
func msgPath(tx keyward.Tx) string {
	if tx == nil {
		return "none"
	}
	msg, err := tx.GetMsg()
	if err != nil || msg == nil {
		return "unknown"
	}
	return msg.Path()
}
