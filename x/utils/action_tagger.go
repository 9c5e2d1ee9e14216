package utils

import (
	"github.com/keyward/keyward"
	"github.com/tendermint/tendermint/libs/common"
)

// ActionKey is the tag key under which the message path is stored.
const ActionKey = "action"

// ActionTagger appends an `action = msg.Path()` tag to every successfully
// delivered transaction, so that clients can subscribe to or search for
// executed operations, for example all "proposal/execute" transactions.
type ActionTagger struct{}

var _ keyward.Decorator = ActionTagger{}

// NewActionTagger creates a ActionTagger decorator
func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

// Check just passes the request along
func (ActionTagger) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Checker) (*keyward.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

// Deliver appends a tag on the result if there is a success.
func (ActionTagger) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Deliverer) (*keyward.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	res.Tags = append(res.Tags, common.KVPair{
		Key:   []byte(ActionKey),
		Value: []byte(msg.Path()),
	})
	return res, nil
}
