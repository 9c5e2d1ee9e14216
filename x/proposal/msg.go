package proposal

import (
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x/vault"
)

func init() {
	codec.RegisterMsg(&CreateProposalMsg{}, "keyward/proposal/CreateProposalMsg")
	codec.RegisterMsg(&VoteMsg{}, "keyward/proposal/VoteMsg")
	codec.RegisterMsg(&ApproveWithSignaturesMsg{}, "keyward/proposal/ApproveWithSignaturesMsg")
	codec.RegisterMsg(&ExecuteProposalMsg{}, "keyward/proposal/ExecuteProposalMsg")
	codec.RegisterMsg(&RejectProposalMsg{}, "keyward/proposal/RejectProposalMsg")
	codec.RegisterMsg(&ExpireProposalMsg{}, "keyward/proposal/ExpireProposalMsg")
}

const (
	pathCreateProposalMsg        = "proposal/create"
	pathVoteMsg                  = "proposal/vote"
	pathApproveWithSignaturesMsg = "proposal/approve_with_signatures"
	pathExecuteProposalMsg       = "proposal/execute"
	pathRejectProposalMsg        = "proposal/reject"
	pathExpireProposalMsg        = "proposal/expire"
)

const (
	// maxTransfers bounds a batch before the policy limit is consulted.
	maxTransfers    = 256
	maxReasonLength = 512
	// maxSignatures bounds a single compact approval message.
	maxSignatures = 128
)

// CreateProposalMsg proposes a withdrawal. A single transfer may request
// its own voting window. A batch always uses the batch voting window of the
// vault.
type CreateProposalMsg struct {
	VaultID      []byte                `json:"vault_id"`
	Transfers    []vault.Transfer      `json:"transfers"`
	Reason       string                `json:"reason"`
	VotingWindow *keyward.UnixDuration `json:"voting_window,omitempty"`
}

var _ keyward.Msg = (*CreateProposalMsg)(nil)

func (m *CreateProposalMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *CreateProposalMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (CreateProposalMsg) Path() string                  { return pathCreateProposalMsg }

func (m *CreateProposalMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	switch n := len(m.Transfers); {
	case n == 0:
		errs = errors.Append(errs, errors.Field("Transfers", errors.ErrEmpty, "required"))
	case n > maxTransfers:
		errs = errors.Append(errs, errors.Field("Transfers", errors.ErrInput, "more than %d", maxTransfers))
	case n > 1 && m.VotingWindow != nil:
		errs = errors.Append(errs, errors.Field("VotingWindow", errors.ErrInput, "not allowed for a batch"))
	}
	for i, t := range m.Transfers {
		errs = errors.AppendField(errs, fmt.Sprintf("Transfers.%d", i), t.Validate())
	}
	if len(m.Reason) > maxReasonLength {
		errs = errors.Append(errs, errors.Field("Reason", errors.ErrInput, "longer than %d", maxReasonLength))
	}
	if m.VotingWindow != nil && *m.VotingWindow <= 0 {
		errs = errors.Append(errs, errors.Field("VotingWindow", errors.ErrInput, "must be positive"))
	}
	return errs
}

// VoteMsg casts a single vote authenticated by the proof.
type VoteMsg struct {
	ProposalID []byte    `json:"proposal_id"`
	Proof      VoteProof `json:"proof"`
}

var _ keyward.Msg = (*VoteMsg)(nil)

func (m *VoteMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *VoteMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (VoteMsg) Path() string                  { return pathVoteMsg }

func (m *VoteMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ProposalID", validateID(m.ProposalID))
	if m.Proof == nil {
		errs = errors.Append(errs, errors.Field("Proof", errors.ErrEmpty, "required"))
	} else {
		errs = errors.AppendField(errs, "Proof", m.Proof.Validate())
	}
	return errs
}

// ApproveWithSignaturesMsg counts off-line approvals of local guardians.
// Signatures use either the 65 byte or the 64 byte compact encoding. A
// single bad signature fails the whole message.
type ApproveWithSignaturesMsg struct {
	ProposalID []byte   `json:"proposal_id"`
	Signatures [][]byte `json:"signatures"`
}

var _ keyward.Msg = (*ApproveWithSignaturesMsg)(nil)

func (m *ApproveWithSignaturesMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *ApproveWithSignaturesMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (ApproveWithSignaturesMsg) Path() string                  { return pathApproveWithSignaturesMsg }

func (m *ApproveWithSignaturesMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ProposalID", validateID(m.ProposalID))
	switch n := len(m.Signatures); {
	case n == 0:
		errs = errors.Append(errs, errors.Field("Signatures", errors.ErrEmpty, "required"))
	case n > maxSignatures:
		errs = errors.Append(errs, errors.Field("Signatures", errors.ErrInput, "more than %d", maxSignatures))
	}
	return errs
}

// ExecuteProposalMsg moves the funds of an approved proposal. Anyone can
// send it.
type ExecuteProposalMsg struct {
	ProposalID []byte `json:"proposal_id"`
}

var _ keyward.Msg = (*ExecuteProposalMsg)(nil)

func (m *ExecuteProposalMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *ExecuteProposalMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (ExecuteProposalMsg) Path() string                  { return pathExecuteProposalMsg }

func (m *ExecuteProposalMsg) Validate() error {
	return errors.AppendField(nil, "ProposalID", validateID(m.ProposalID))
}

// RejectProposalMsg closes a pending proposal. Only the vault owner can
// send it.
type RejectProposalMsg struct {
	ProposalID []byte `json:"proposal_id"`
	Reason     string `json:"reason"`
}

var _ keyward.Msg = (*RejectProposalMsg)(nil)

func (m *RejectProposalMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *RejectProposalMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (RejectProposalMsg) Path() string                  { return pathRejectProposalMsg }

func (m *RejectProposalMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ProposalID", validateID(m.ProposalID))
	if len(m.Reason) > maxReasonLength {
		errs = errors.Append(errs, errors.Field("Reason", errors.ErrInput, "longer than %d", maxReasonLength))
	}
	return errs
}

// ExpireProposalMsg records that a proposal can no longer be executed.
// Anyone can send it.
type ExpireProposalMsg struct {
	ProposalID []byte `json:"proposal_id"`
}

var _ keyward.Msg = (*ExpireProposalMsg)(nil)

func (m *ExpireProposalMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *ExpireProposalMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (ExpireProposalMsg) Path() string                  { return pathExpireProposalMsg }

func (m *ExpireProposalMsg) Validate() error {
	return errors.AppendField(nil, "ProposalID", validateID(m.ProposalID))
}

func validateID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "id must be 8 bytes, got %d", len(id))
	}
	return nil
}
