package proposal

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x/crossdomain"
)

func init() {
	codec.RegisterInterface((*VoteProof)(nil))
	codec.RegisterConcrete(&SignerProof{}, "keyward/proposal/SignerProof")
	codec.RegisterConcrete(&LocalSignatureProof{}, "keyward/proposal/LocalSignatureProof")
	codec.RegisterConcrete(&RemoteProof{}, "keyward/proposal/RemoteProof")
}

// VoteProof authenticates a voter. It is one of SignerProof,
// LocalSignatureProof or RemoteProof.
type VoteProof interface {
	Validate() error
	isVoteProof()
}

// SignerProof votes as the main signer of the transaction.
type SignerProof struct{}

func (*SignerProof) isVoteProof() {}

func (*SignerProof) Validate() error { return nil }

// LocalSignatureProof is an approval signed off-line by a local guardian
// and relayed by anyone. Signature covers ApprovalDigest.
type LocalSignatureProof struct {
	Voter     keyward.Address `json:"voter"`
	Signature []byte          `json:"signature"`
}

func (*LocalSignatureProof) isVoteProof() {}

func (p *LocalSignatureProof) Validate() error {
	if p == nil {
		return errors.ErrEmpty
	}
	var errs error
	errs = errors.AppendField(errs, "Voter", p.Voter.Validate())
	if len(p.Signature) == 0 {
		errs = errors.Append(errs, errors.Field("Signature", errors.ErrEmpty, "required"))
	}
	return errs
}

// RemoteProof is a vote of a guardian of a remote domain. Without a
// Signature the guardian must sign the transaction.
type RemoteProof struct {
	Proof     *crossdomain.RemoteGuardianProof `json:"proof"`
	Signature []byte                           `json:"signature,omitempty"`
}

func (*RemoteProof) isVoteProof() {}

func (p *RemoteProof) Validate() error {
	if p == nil || p.Proof == nil {
		return errors.Field("Proof", errors.ErrEmpty, "required")
	}
	return errors.AppendField(nil, "Proof", p.Proof.Validate())
}

// ballot is a vote proof resolved into the voter it authenticates.
type ballot struct {
	voter  keyward.Address
	domain string
	weight keyward.Fraction
}

func (b ballot) remote() bool {
	return b.domain != crossdomain.LocalDomain
}

const approvalDigestPrefix = "keyward/approve"

// ApprovalDigest is the hash a guardian signs to approve a proposal
// off-line.
func ApprovalDigest(chainID string, p *Proposal) []byte {
	return crypto.Keccak256(
		[]byte(approvalDigestPrefix),
		[]byte{byte(len(chainID))},
		[]byte(chainID),
		p.VaultID,
		p.ID,
	)
}
