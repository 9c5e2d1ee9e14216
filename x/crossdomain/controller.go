package crossdomain

import (
	"encoding/binary"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// Controller verifies remote guardian credentials for other extensions.
type Controller interface {
	// Verify returns ErrProofMismatch unless the proof leads to the root
	// of the current snapshot of its domain.
	Verify(db keyward.ReadOnlyKVStore, proof *RemoteGuardianProof) error
	// VerifyForProposal additionally returns ErrStaleSnapshot when the
	// current snapshot was registered more than the staleness window of
	// the domain before the proposal was created.
	VerifyForProposal(db keyward.ReadOnlyKVStore, proof *RemoteGuardianProof, createdAt keyward.UnixTime) error
}

// BaseController is the bucket backed Controller.
type BaseController struct {
	domains   orm.ModelBucket
	snapshots orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		domains:   NewDomainBucket(),
		snapshots: NewSnapshotBucket(),
	}
}

// Domain returns the registered domain or ErrNotFound.
func (c BaseController) Domain(db keyward.ReadOnlyKVStore, id string) (*Domain, error) {
	var d Domain
	if err := c.domains.One(db, []byte(id), &d); err != nil {
		return nil, errors.Wrapf(err, "domain %q", id)
	}
	return &d, nil
}

// CurrentSnapshot returns the latest snapshot of the domain or ErrNotFound
// when none was registered.
func (c BaseController) CurrentSnapshot(db keyward.ReadOnlyKVStore, domainID string) (*Snapshot, error) {
	it, err := c.snapshots.PrefixScan(db, snapshotPrefix(domainID), true)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var s Snapshot
	switch _, err := it.LoadNext(&s); {
	case err == nil:
		return &s, nil
	case errors.ErrIteratorDone.Is(err):
		return nil, errors.Wrapf(errors.ErrNotFound, "no snapshot of %q", domainID)
	default:
		return nil, err
	}
}

// Snapshots returns all snapshots of the domain, oldest first.
func (c BaseController) Snapshots(db keyward.ReadOnlyKVStore, domainID string) ([]*Snapshot, error) {
	it, err := c.snapshots.PrefixScan(db, snapshotPrefix(domainID), false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var res []*Snapshot
	for {
		var s Snapshot
		switch _, err := it.LoadNext(&s); {
		case err == nil:
			res = append(res, &s)
		case errors.ErrIteratorDone.Is(err):
			return res, nil
		default:
			return nil, err
		}
	}
}

func (c BaseController) Verify(db keyward.ReadOnlyKVStore, proof *RemoteGuardianProof) error {
	_, err := c.verify(db, proof)
	return err
}

func (c BaseController) VerifyForProposal(db keyward.ReadOnlyKVStore, proof *RemoteGuardianProof, createdAt keyward.UnixTime) error {
	snap, err := c.verify(db, proof)
	if err != nil {
		return err
	}
	d, err := c.Domain(db, proof.DomainID)
	if err != nil {
		return err
	}
	oldest := createdAt.AddDuration(-d.StalenessWindow)
	if snap.RegisteredAt < oldest {
		return errors.Wrapf(ErrStaleSnapshot, "snapshot %d registered %s, proposal created %s",
			snap.Sequence, snap.RegisteredAt, createdAt)
	}
	return nil
}

// verify fails closed. A missing domain or snapshot is reported as a
// mismatch as well.
func (c BaseController) verify(db keyward.ReadOnlyKVStore, proof *RemoteGuardianProof) (*Snapshot, error) {
	if proof == nil {
		return nil, errors.Wrap(ErrProofMismatch, "missing proof")
	}
	if err := proof.Validate(); err != nil {
		return nil, errors.Wrap(ErrProofMismatch, err.Error())
	}
	snap, err := c.CurrentSnapshot(db, proof.DomainID)
	switch {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(ErrProofMismatch, err.Error())
	case err != nil:
		return nil, err
	}
	if snap.Sequence != proof.SnapshotID {
		return nil, errors.Wrapf(ErrProofMismatch, "snapshot %d is not current, want %d", proof.SnapshotID, snap.Sequence)
	}
	if err := VerifyPath(Leaf(proof.Guardian, proof.TokenID), proof.Path, snap.Root, snap.Depth); err != nil {
		return nil, err
	}
	return snap, nil
}

const snapshotDigestPrefix = "keyward/snapshot"

// SnapshotDigest is the hash signed by the attestors of a domain.
func SnapshotDigest(domainID string, root []byte, depth uint32, timestamp keyward.UnixTime) []byte {
	var meta [13]byte
	meta[0] = byte(len(domainID))
	binary.BigEndian.PutUint32(meta[1:5], depth)
	binary.BigEndian.PutUint64(meta[5:], uint64(timestamp))
	return crypto.Keccak256([]byte(snapshotDigestPrefix), meta[:1], []byte(domainID), root, meta[1:])
}

// RegisterDomain stores a new domain. An existing ID is ErrDuplicate.
func (c BaseController) RegisterDomain(db keyward.KVStore, d *Domain) error {
	switch err := c.domains.Has(db, []byte(d.ID)); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "domain %q", d.ID)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	if _, err := c.domains.Put(db, []byte(d.ID), d); err != nil {
		return errors.Wrap(err, "cannot store domain")
	}
	return nil
}

// RegisterSnapshot stores s as the current snapshot of its domain and
// returns its key. The sequence of s must follow the current one.
func (c BaseController) RegisterSnapshot(db keyward.KVStore, s *Snapshot) ([]byte, error) {
	want := int64(1)
	switch prev, err := c.CurrentSnapshot(db, s.DomainID); {
	case err == nil:
		want = prev.Sequence + 1
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if s.Sequence != want {
		return nil, errors.Wrapf(errors.ErrState, "snapshot sequence %d, want %d", s.Sequence, want)
	}
	key := snapshotKey(s.DomainID, s.Sequence)
	if _, err := c.snapshots.Put(db, key, s); err != nil {
		return nil, errors.Wrap(err, "cannot store snapshot")
	}
	return key, nil
}
