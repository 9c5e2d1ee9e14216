package audit

import (
	"encoding/hex"
	"strconv"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
	"github.com/tendermint/tendermint/libs/common"
)

// Tag keys attached to the deliver result for every emitted event.
const (
	TagKind    = "audit.kind"
	TagVault   = "audit.vault"
	TagIndex   = "audit.index"
	TagSubject = "audit.subject"
)

var bucket = NewBucket()

// Emit appends the event to the log. Index, Height and Time are assigned
// from the sequence and the block context. The returned tags describe the
// stored event.
func Emit(ctx keyward.Context, db keyward.KVStore, e Event) ([]common.KVPair, error) {
	index, err := eventSeq.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "audit sequence")
	}
	e.Index = index
	e.Time = keyward.Now(ctx)
	if height, ok := keyward.GetHeight(ctx); ok {
		e.Height = height
	}
	if _, err := bucket.Put(db, orm.EncodeSequence(index), &e); err != nil {
		return nil, errors.Wrapf(err, "cannot store %s event", e.Kind)
	}

	keyward.GetLogger(ctx).Debug("audit event",
		"kind", string(e.Kind),
		"index", index,
		"vault", hex.EncodeToString(e.VaultID))

	tags := []common.KVPair{
		{Key: []byte(TagKind), Value: []byte(e.Kind)},
		{Key: []byte(TagIndex), Value: []byte(strconv.FormatInt(index, 10))},
	}
	if len(e.VaultID) != 0 {
		tags = append(tags, common.KVPair{Key: []byte(TagVault), Value: []byte(hex.EncodeToString(e.VaultID))})
	}
	if len(e.Subject) != 0 {
		tags = append(tags, common.KVPair{Key: []byte(TagSubject), Value: []byte(hex.EncodeToString(e.Subject))})
	}
	return tags, nil
}

// Collector gathers the tags of several events emitted while handling a
// single message. The first failure is kept and all later calls are no-ops.
type Collector struct {
	ctx  keyward.Context
	db   keyward.KVStore
	tags []common.KVPair
	err  error
}

// NewCollector returns a collector writing to db.
func NewCollector(ctx keyward.Context, db keyward.KVStore) *Collector {
	return &Collector{ctx: ctx, db: db}
}

// Emit appends the event unless a previous one failed.
func (c *Collector) Emit(e Event) {
	if c.err != nil {
		return
	}
	tags, err := Emit(c.ctx, c.db, e)
	if err != nil {
		c.err = err
		return
	}
	c.tags = append(c.tags, tags...)
}

// Tags returns all collected tags or the first error.
func (c *Collector) Tags() ([]common.KVPair, error) {
	return c.tags, c.err
}

// History returns all events of the vault in the order they were emitted.
func History(db keyward.ReadOnlyKVStore, vaultID []byte) ([]*Event, error) {
	var events []*Event
	if _, err := bucket.ByIndex(db, "vault", vaultID, &events); err != nil {
		return nil, errors.Wrap(err, "vault events")
	}
	return events, nil
}

// Get returns the event stored under the index.
func Get(db keyward.ReadOnlyKVStore, index int64) (*Event, error) {
	var e Event
	if err := bucket.One(db, orm.EncodeSequence(index), &e); err != nil {
		return nil, errors.Wrapf(err, "event %d", index)
	}
	return &e, nil
}

// Latest returns the index of the most recently emitted event or zero if
// the log is empty.
func Latest(db keyward.ReadOnlyKVStore) (int64, error) {
	return eventSeq.Latest(db)
}

// RegisterQuery exposes the log as "/audit" and its vault index as
// "/audit/vault".
func RegisterQuery(qr keyward.QueryRouter) {
	NewBucket().Register("audit", qr)
}
