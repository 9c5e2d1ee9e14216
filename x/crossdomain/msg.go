package crossdomain

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

func init() {
	codec.RegisterMsg(&RegisterDomainMsg{}, "keyward/crossdomain/RegisterDomainMsg")
	codec.RegisterMsg(&UpdateAttestorsMsg{}, "keyward/crossdomain/UpdateAttestorsMsg")
	codec.RegisterMsg(&SubmitSnapshotMsg{}, "keyward/crossdomain/SubmitSnapshotMsg")
}

const (
	pathRegisterDomainMsg  = "crossdomain/register_domain"
	pathUpdateAttestorsMsg = "crossdomain/update_attestors"
	pathSubmitSnapshotMsg  = "crossdomain/submit_snapshot"
)

// MaxAttestations limits the signatures carried by a single snapshot.
const MaxAttestations = 64

// RegisterDomainMsg registers a remote domain. Only the domain admin of the
// policy can send it. Owner defaults to the admin.
type RegisterDomainMsg struct {
	ID                    string               `json:"id"`
	Attestors             []keyward.Address    `json:"attestors"`
	ConfirmationThreshold uint32               `json:"confirmation_threshold"`
	StalenessWindow       keyward.UnixDuration `json:"staleness_window"`
	TreeDepth             uint32               `json:"tree_depth"`
	Owner                 keyward.Address      `json:"owner,omitempty"`
}

var _ keyward.Msg = (*RegisterDomainMsg)(nil)

func (m *RegisterDomainMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *RegisterDomainMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (RegisterDomainMsg) Path() string                  { return pathRegisterDomainMsg }

func (m *RegisterDomainMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ID", validateDomainID(m.ID))
	errs = errors.AppendField(errs, "Attestors", validateAttestors(m.Attestors, m.ConfirmationThreshold))
	if m.StalenessWindow <= 0 {
		errs = errors.Append(errs, errors.Field("StalenessWindow", errors.ErrInput, "must be positive"))
	}
	if m.TreeDepth == 0 || m.TreeDepth > MaxTreeDepth {
		errs = errors.Append(errs, errors.Field("TreeDepth", errors.ErrInput, "must be between 1 and %d", MaxTreeDepth))
	}
	if m.Owner != nil {
		errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	}
	return errs
}

// UpdateAttestorsMsg replaces the attestor set of a domain. Only the domain
// owner can send it. Snapshots registered before stay current.
type UpdateAttestorsMsg struct {
	DomainID              string            `json:"domain_id"`
	Attestors             []keyward.Address `json:"attestors"`
	ConfirmationThreshold uint32            `json:"confirmation_threshold"`
}

var _ keyward.Msg = (*UpdateAttestorsMsg)(nil)

func (m *UpdateAttestorsMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *UpdateAttestorsMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (UpdateAttestorsMsg) Path() string                  { return pathUpdateAttestorsMsg }

func (m *UpdateAttestorsMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "DomainID", validateDomainID(m.DomainID))
	errs = errors.AppendField(errs, "Attestors", validateAttestors(m.Attestors, m.ConfirmationThreshold))
	return errs
}

// SubmitSnapshotMsg is sent by a relay to register a new root of a domain.
// Every attestation is a signature of SnapshotDigest.
type SubmitSnapshotMsg struct {
	DomainID     string           `json:"domain_id"`
	Root         []byte           `json:"root"`
	Depth        uint32           `json:"depth"`
	Timestamp    keyward.UnixTime `json:"timestamp"`
	Attestations [][]byte         `json:"attestations"`
}

var _ keyward.Msg = (*SubmitSnapshotMsg)(nil)

func (m *SubmitSnapshotMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *SubmitSnapshotMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (SubmitSnapshotMsg) Path() string                  { return pathSubmitSnapshotMsg }

func (m *SubmitSnapshotMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "DomainID", validateDomainID(m.DomainID))
	if len(m.Root) != crypto.HashSize {
		errs = errors.Append(errs, errors.Field("Root", errors.ErrInput, "must be %d bytes", crypto.HashSize))
	}
	if m.Depth == 0 || m.Depth > MaxTreeDepth {
		errs = errors.Append(errs, errors.Field("Depth", errors.ErrInput, "out of range"))
	}
	if m.Timestamp <= 0 {
		errs = errors.Append(errs, errors.Field("Timestamp", errors.ErrInput, "must be positive"))
	}
	switch n := len(m.Attestations); {
	case n == 0:
		errs = errors.Append(errs, errors.Field("Attestations", errors.ErrEmpty, "required"))
	case n > MaxAttestations:
		errs = errors.Append(errs, errors.Field("Attestations", errors.ErrInput, "more than %d", MaxAttestations))
	}
	return errs
}

// Digest returns the hash the attestors sign.
func (m *SubmitSnapshotMsg) Digest() []byte {
	return SnapshotDigest(m.DomainID, m.Root, m.Depth, m.Timestamp)
}
