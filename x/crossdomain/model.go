package crossdomain

import (
	"regexp"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

var isDomainID = regexp.MustCompile(`^[a-z0-9][a-z0-9_.\-]{1,63}$`).MatchString

// LocalDomain is reserved for votes cast by guardians of the vault itself.
const LocalDomain = "local"

func validateDomainID(id string) error {
	if id == LocalDomain {
		return errors.Wrap(errors.ErrInput, "reserved domain")
	}
	if !isDomainID(id) {
		return errors.Wrapf(errors.ErrInput, "invalid domain %q", id)
	}
	return nil
}

// Domain is a remote ledger whose guardian credentials are accepted.
type Domain struct {
	ID string `json:"id"`
	// Attestors sign the snapshots of the domain.
	Attestors []keyward.Address `json:"attestors"`
	// ConfirmationThreshold is the number of distinct attestor signatures
	// a snapshot requires.
	ConfirmationThreshold uint32 `json:"confirmation_threshold"`
	// StalenessWindow is the oldest a snapshot may be, relative to the
	// creation of a proposal, to back a vote on it.
	StalenessWindow keyward.UnixDuration `json:"staleness_window"`
	TreeDepth       uint32               `json:"tree_depth"`
	// Owner may replace the attestor set.
	Owner keyward.Address `json:"owner"`
}

var _ orm.Model = (*Domain)(nil)

func (d *Domain) Marshal() ([]byte, error) {
	return codec.Marshal(d)
}

func (d *Domain) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, d)
}

func (d *Domain) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ID", validateDomainID(d.ID))
	errs = errors.AppendField(errs, "Attestors", validateAttestors(d.Attestors, d.ConfirmationThreshold))
	if d.StalenessWindow <= 0 {
		errs = errors.Append(errs, errors.Field("StalenessWindow", errors.ErrInput, "must be positive"))
	}
	if d.TreeDepth == 0 || d.TreeDepth > MaxTreeDepth {
		errs = errors.Append(errs, errors.Field("TreeDepth", errors.ErrInput, "must be between 1 and %d", MaxTreeDepth))
	}
	errs = errors.AppendField(errs, "Owner", d.Owner.Validate())
	return errs
}

// IsAttestor returns true if addr belongs to the attestor set.
func (d *Domain) IsAttestor(addr keyward.Address) bool {
	for _, a := range d.Attestors {
		if a.Equals(addr) {
			return true
		}
	}
	return false
}

func validateAttestors(attestors []keyward.Address, threshold uint32) error {
	if len(attestors) == 0 {
		return errors.ErrEmpty
	}
	seen := make(map[string]struct{}, len(attestors))
	for i, a := range attestors {
		if err := a.Validate(); err != nil {
			return errors.Wrapf(err, "attestor %d", i)
		}
		if _, ok := seen[string(a)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "attestor %s", a)
		}
		seen[string(a)] = struct{}{}
	}
	if threshold == 0 || int(threshold) > len(attestors) {
		return errors.Wrapf(errors.ErrInput, "threshold %d of %d attestors", threshold, len(attestors))
	}
	return nil
}

// Snapshot is a trusted root of the guardian credential tree of a domain.
type Snapshot struct {
	DomainID string `json:"domain_id"`
	Sequence int64  `json:"sequence"`
	Root     []byte `json:"root"`
	Depth    uint32 `json:"depth"`
	// ValidFrom is the time the remote domain computed the root.
	ValidFrom keyward.UnixTime `json:"valid_from"`
	// RegisteredAt is the block time the snapshot was accepted.
	RegisteredAt keyward.UnixTime `json:"registered_at"`
	// Attestors that signed the snapshot.
	Attestors []keyward.Address `json:"attestors"`
}

var _ orm.Model = (*Snapshot)(nil)

func (s *Snapshot) Marshal() ([]byte, error) {
	return codec.Marshal(s)
}

func (s *Snapshot) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, s)
}

func (s *Snapshot) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "DomainID", validateDomainID(s.DomainID))
	if s.Sequence < 1 {
		errs = errors.Append(errs, errors.Field("Sequence", errors.ErrInput, "must be positive"))
	}
	if len(s.Root) != crypto.HashSize {
		errs = errors.Append(errs, errors.Field("Root", errors.ErrInput, "must be %d bytes", crypto.HashSize))
	}
	if s.Depth == 0 || s.Depth > MaxTreeDepth {
		errs = errors.Append(errs, errors.Field("Depth", errors.ErrInput, "out of range"))
	}
	errs = errors.AppendField(errs, "ValidFrom", s.ValidFrom.Validate())
	if s.RegisteredAt == 0 {
		errs = errors.Append(errs, errors.Field("RegisteredAt", errors.ErrEmpty, "required"))
	}
	if len(s.Attestors) == 0 {
		errs = errors.Append(errs, errors.Field("Attestors", errors.ErrEmpty, "required"))
	}
	return errs
}

// snapshotKey orders the snapshots of a domain by sequence.
func snapshotKey(domainID string, seq int64) []byte {
	return append(snapshotPrefix(domainID), orm.EncodeSequence(seq)...)
}

func snapshotPrefix(domainID string) []byte {
	return []byte(domainID + "/")
}

// RemoteGuardianProof claims that Guardian holds the credential TokenID in
// the tree of snapshot SnapshotID of DomainID.
type RemoteGuardianProof struct {
	DomainID   string           `json:"domain_id"`
	SnapshotID int64            `json:"snapshot_id"`
	Guardian   keyward.Address  `json:"guardian"`
	TokenID    uint64           `json:"token_id"`
	Path       []ProofStep      `json:"path"`
	ClaimedAt  keyward.UnixTime `json:"claimed_at"`
}

func (p *RemoteGuardianProof) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "DomainID", validateDomainID(p.DomainID))
	if p.SnapshotID < 1 {
		errs = errors.Append(errs, errors.Field("SnapshotID", errors.ErrInput, "must be positive"))
	}
	errs = errors.AppendField(errs, "Guardian", p.Guardian.Validate())
	if len(p.Path) == 0 || len(p.Path) > MaxTreeDepth {
		errs = errors.Append(errs, errors.Field("Path", errors.ErrInput, "length %d out of range", len(p.Path)))
	}
	return errs
}

// NewDomainBucket returns the bucket of remote domains keyed by ID.
func NewDomainBucket() orm.ModelBucket {
	return orm.NewModelBucket("domain", &Domain{})
}

// NewSnapshotBucket returns the bucket of snapshots keyed by domain and
// sequence.
func NewSnapshotBucket() orm.ModelBucket {
	return orm.NewModelBucket("snapshot", &Snapshot{})
}
