package proposal

import (
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/gconf"
	"github.com/keyward/keyward/x"
	"github.com/keyward/keyward/x/audit"
	"github.com/keyward/keyward/x/crossdomain"
	"github.com/keyward/keyward/x/guardian"
	"github.com/keyward/keyward/x/pause"
	"github.com/keyward/keyward/x/sigs"
	"github.com/keyward/keyward/x/vault"
)

// Deps are the controllers of other extensions used by the proposal
// handlers.
type Deps struct {
	Vaults    vault.Controller
	Guardians guardian.Controller
	Pauses    pause.Controller
	Domains   crossdomain.Controller
	// Verifier memoizes signature recovery. It may be nil.
	Verifier *sigs.Verifier
}

// RegisterRoutes registers all proposal handlers.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator, deps Deps) {
	b := base{Deps: deps, auth: auth, ctrl: NewController()}
	r.Handle(pathCreateProposalMsg, CreateProposalHandler{b})
	r.Handle(pathVoteMsg, VoteHandler{b})
	r.Handle(pathApproveWithSignaturesMsg, ApproveWithSignaturesHandler{b})
	r.Handle(pathExecuteProposalMsg, ExecuteProposalHandler{b})
	r.Handle(pathRejectProposalMsg, RejectProposalHandler{b})
	r.Handle(pathExpireProposalMsg, ExpireProposalHandler{b})
}

// RegisterQuery exposes proposals as "/proposals" and votes as "/votes".
// Votes of a proposal are listed with a prefix query of its ID.
func RegisterQuery(qr keyward.QueryRouter) {
	NewProposalBucket().Register("proposals", qr)
	NewVoteBucket().Register("votes", qr)
}

type base struct {
	Deps
	auth x.Authenticator
	ctrl BaseController
}

func (b base) save(db keyward.KVStore, p *Proposal) error {
	if _, err := b.ctrl.proposals.Put(db, p.ID, p); err != nil {
		return errors.Wrap(err, "cannot store proposal")
	}
	return nil
}

func (b base) actor(ctx keyward.Context) keyward.Address {
	if signer := x.MainSigner(ctx, b.auth); signer != nil {
		return signer.Address()
	}
	return nil
}

// openForVotes loads a proposal that accepts votes at the current time.
func (b base) openForVotes(ctx keyward.Context, db keyward.ReadOnlyKVStore, id []byte) (*Proposal, error) {
	p, err := b.ctrl.Get(db, id)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case StatusPending:
	case StatusExecuted:
		return nil, errors.Wrapf(ErrAlreadyExecuted, "proposal %X", p.ID)
	default:
		return nil, errors.Wrapf(errors.ErrState, "proposal %X is %s", p.ID, p.Status)
	}
	if now := keyward.Now(ctx); !p.votingOpen(now) {
		return nil, errors.Wrapf(ErrVotingWindowExpired, "deadline %s", p.VotingDeadline)
	}
	return p, nil
}

// requireLocalVoter returns ErrNotActiveGuardian unless addr is an active
// guardian of the vault, and ErrAlreadyVoted if it voted already.
func (b base) requireLocalVoter(db keyward.ReadOnlyKVStore, p *Proposal, addr keyward.Address) error {
	active, err := b.Guardians.IsActive(db, p.VaultID, addr)
	if err != nil {
		return err
	}
	if !active {
		return errors.Wrapf(guardian.ErrNotActiveGuardian, "%s", addr)
	}
	return b.requireNotVoted(db, p, addr)
}

func (b base) requireNotVoted(db keyward.ReadOnlyKVStore, p *Proposal, addr keyward.Address) error {
	voted, err := b.ctrl.HasVoted(db, p.ID, addr)
	if err != nil {
		return err
	}
	if voted {
		return errors.Wrapf(ErrAlreadyVoted, "%s", addr)
	}
	return nil
}

// tally counts all ballots and emits the vote and approval events.
func (b base) tally(ctx keyward.Context, db keyward.KVStore, p *Proposal, ballots []ballot) (*keyward.DeliverResult, error) {
	threshold, err := b.Guardians.Threshold(db, p.VaultID)
	if err != nil {
		return nil, err
	}
	now := keyward.Now(ctx)
	events := audit.NewCollector(ctx, db)
	for _, bl := range ballots {
		approved, err := b.ctrl.count(db, p, bl, now, threshold)
		if err != nil {
			return nil, err
		}
		events.Emit(audit.Event{
			VaultID: p.VaultID,
			Kind:    audit.ProposalVoted,
			Actor:   bl.voter,
			Subject: p.ID,
			Detail:  fmt.Sprintf("%s weight %s", bl.domain, bl.weight.String()),
		})
		if approved {
			events.Emit(audit.Event{
				VaultID: p.VaultID,
				Kind:    audit.ProposalApproved,
				Subject: p.ID,
				Detail:  fmt.Sprintf("weight %s of %d", p.ApprovalWeight.String(), threshold),
			})
		}
	}
	if err := b.save(db, p); err != nil {
		return nil, err
	}
	tags, err := events.Tags()
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: p.ID, Tags: tags}, nil
}

type CreateProposalHandler struct{ base }

var _ keyward.Handler = CreateProposalHandler{}

func (h CreateProposalHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h CreateProposalHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	p, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if p.ID, err = proposalSeq.NextVal(db); err != nil {
		return nil, errors.Wrap(err, "cannot acquire key")
	}
	if err := h.save(db, p); err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: p.VaultID,
		Kind:    audit.ProposalCreated,
		Actor:   p.Author,
		Subject: p.ID,
		Detail:  fmt.Sprintf("%s of %d transfers, deadline %s", p.Kind, len(p.Transfers), p.VotingDeadline),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: p.ID, Tags: tags}, nil
}

// validate returns the proposal to be created, without an ID.
func (h CreateProposalHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Proposal, error) {
	var msg CreateProposalMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	v, err := h.Vaults.Authorize(ctx, db, h.auth, msg.VaultID)
	if err != nil {
		return nil, err
	}
	policy, err := gconf.LoadPolicy(db)
	if err != nil {
		return nil, errors.Wrap(err, "policy")
	}
	if uint32(len(msg.Transfers)) > policy.MaxBatchSize {
		return nil, errors.Wrapf(errors.ErrInput, "%d transfers, at most %d allowed", len(msg.Transfers), policy.MaxBatchSize)
	}
	switch threshold, err := h.Guardians.Threshold(db, msg.VaultID); {
	case err != nil:
		return nil, err
	case threshold == 0:
		return nil, errors.Wrap(errors.ErrState, "quorum not configured")
	}
	if err := h.Vaults.Covers(db, msg.VaultID, msg.Transfers); err != nil {
		return nil, err
	}

	conf := vault.Resolve(v.Config, policy)
	kind, window := KindSingle, conf.VotingWindow
	switch {
	case len(msg.Transfers) > 1:
		kind, window = KindBatch, conf.BatchVotingWindow
	case msg.VotingWindow != nil:
		if !policy.InWindowBounds(*msg.VotingWindow) {
			return nil, errors.Wrapf(errors.ErrInput, "voting window %s out of bounds [%s, %s]",
				msg.VotingWindow, policy.MinVotingWindow, policy.MaxVotingWindow)
		}
		window = *msg.VotingWindow
	}

	now := keyward.Now(ctx)
	return &Proposal{
		VaultID:        msg.VaultID,
		Kind:           kind,
		Transfers:      msg.Transfers,
		Reason:         msg.Reason,
		Author:         v.Owner,
		CreatedAt:      now,
		VotingDeadline: now.AddDuration(window),
		ApprovalWeight: keyward.Fraction{Numerator: 0, Denominator: 1},
		Status:         StatusPending,
	}, nil
}

type VoteHandler struct{ base }

var _ keyward.Handler = VoteHandler{}

func (h VoteHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h VoteHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	p, b, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.tally(ctx, db, p, []ballot{b})
}

func (h VoteHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Proposal, ballot, error) {
	var msg VoteMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, ballot{}, errors.Wrap(err, "load msg")
	}
	p, err := h.openForVotes(ctx, db, msg.ProposalID)
	if err != nil {
		return nil, ballot{}, err
	}
	b, err := h.resolve(ctx, db, p, msg.Proof)
	if err != nil {
		return nil, ballot{}, err
	}
	if b.remote() {
		err = h.requireNotVoted(db, p, b.voter)
	} else {
		err = h.requireLocalVoter(db, p, b.voter)
	}
	if err != nil {
		return nil, ballot{}, err
	}
	return p, b, nil
}

// resolve authenticates the voter of the proof.
func (h VoteHandler) resolve(ctx keyward.Context, db keyward.ReadOnlyKVStore, p *Proposal, proof VoteProof) (ballot, error) {
	local := ballot{domain: crossdomain.LocalDomain, weight: keyward.One}

	switch proof := proof.(type) {
	case *SignerProof:
		voter := h.actor(ctx)
		if voter == nil {
			return ballot{}, errors.Wrap(errors.ErrUnauthorized, "no signer")
		}
		local.voter = voter
		return local, nil

	case *LocalSignatureProof:
		digest := ApprovalDigest(keyward.GetChainID(ctx), p)
		signer, err := h.Verifier.RecoverAny(digest, proof.Signature)
		if err != nil {
			return ballot{}, err
		}
		if !signer.Equals(proof.Voter) {
			return ballot{}, errors.Wrapf(sigs.ErrInvalidSignature, "signed by %s, not %s", signer, proof.Voter)
		}
		local.voter = proof.Voter
		return local, nil

	case *RemoteProof:
		g := proof.Proof.Guardian
		if len(proof.Signature) == 0 {
			if !h.auth.HasAddress(ctx, g) {
				return ballot{}, errors.Wrapf(errors.ErrUnauthorized, "remote guardian %s did not sign", g)
			}
		} else {
			digest := ApprovalDigest(keyward.GetChainID(ctx), p)
			signer, err := h.Verifier.RecoverAny(digest, proof.Signature)
			if err != nil {
				return ballot{}, err
			}
			if !signer.Equals(g) {
				return ballot{}, errors.Wrapf(sigs.ErrInvalidSignature, "signed by %s, not %s", signer, g)
			}
		}
		if err := h.Domains.VerifyForProposal(db, proof.Proof, p.CreatedAt); err != nil {
			return ballot{}, err
		}
		conf, err := h.Vaults.Config(db, p.VaultID)
		if err != nil {
			return ballot{}, errors.Wrap(err, "vault configuration")
		}
		return ballot{voter: g, domain: proof.Proof.DomainID, weight: conf.RemoteWeight}, nil

	default:
		return ballot{}, errors.Wrapf(errors.ErrType, "unknown proof %T", proof)
	}
}

type ApproveWithSignaturesHandler struct{ base }

var _ keyward.Handler = ApproveWithSignaturesHandler{}

func (h ApproveWithSignaturesHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h ApproveWithSignaturesHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	p, ballots, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return h.tally(ctx, db, p, ballots)
}

// validate accepts all signatures or none of them.
func (h ApproveWithSignaturesHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Proposal, []ballot, error) {
	var msg ApproveWithSignaturesMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	p, err := h.openForVotes(ctx, db, msg.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	digest := ApprovalDigest(keyward.GetChainID(ctx), p)
	signers, dups, err := h.Verifier.BatchRecover(digest, msg.Signatures)
	if err != nil {
		return nil, nil, err
	}
	if len(dups) != 0 {
		return nil, nil, errors.Wrapf(sigs.ErrDuplicateSigner, "signature %d", dups[0])
	}
	ballots := make([]ballot, len(signers))
	for i, s := range signers {
		if err := h.requireLocalVoter(db, p, s); err != nil {
			return nil, nil, errors.Wrapf(err, "signature %d", i)
		}
		ballots[i] = ballot{voter: s, domain: crossdomain.LocalDomain, weight: keyward.One}
	}
	return p, ballots, nil
}

// ExecuteProposalHandler moves the funds of an approved proposal in one
// batch. A failed execution leaves the proposal approved, even past its
// deadline: the transaction is rolled back as a whole, so closing an
// unpayable proposal is left to ExpireProposalMsg.
type ExecuteProposalHandler struct{ base }

var _ keyward.Handler = ExecuteProposalHandler{}

func (h ExecuteProposalHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	p, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.Vaults.Covers(db, p.VaultID, p.Transfers); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h ExecuteProposalHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	p, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// Any failure below is returned before the proposal is stored, so it
	// stays approved.
	if err := h.Vaults.TransferBatch(db, p.VaultID, p.Transfers); err != nil {
		return nil, err
	}
	now := keyward.Now(ctx)
	p.Status = StatusExecuted
	p.ExecutedAt = now
	p.ClosedAt = now
	if err := h.save(db, p); err != nil {
		return nil, err
	}
	total, err := vault.Totals(p.Transfers)
	if err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: p.VaultID,
		Kind:    audit.ProposalExecuted,
		Actor:   h.actor(ctx),
		Subject: p.ID,
		Detail:  fmt.Sprintf("%d transfers, total %v", len(p.Transfers), total),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: p.ID, Tags: tags}, nil
}

// validate checks the pause switch before the proposal state.
func (h ExecuteProposalHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Proposal, error) {
	var msg ExecuteProposalMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	p, err := h.ctrl.Get(db, msg.ProposalID)
	if err != nil {
		return nil, err
	}
	if err := h.Pauses.RequireActive(db, p.VaultID); err != nil {
		return nil, err
	}
	switch p.Status {
	case StatusApproved:
		return p, nil
	case StatusExecuted:
		return nil, errors.Wrapf(ErrAlreadyExecuted, "proposal %X", p.ID)
	default:
		return nil, errors.Wrapf(ErrNotApproved, "proposal %X is %s", p.ID, p.Status)
	}
}

type RejectProposalHandler struct{ base }

var _ keyward.Handler = RejectProposalHandler{}

func (h RejectProposalHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h RejectProposalHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	p, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	p.Status = StatusRejected
	p.ClosedAt = keyward.Now(ctx)
	p.CloseReason = msg.Reason
	if err := h.save(db, p); err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: p.VaultID,
		Kind:    audit.ProposalRejected,
		Actor:   h.actor(ctx),
		Subject: p.ID,
		Detail:  msg.Reason,
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: p.ID, Tags: tags}, nil
}

func (h RejectProposalHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Proposal, *RejectProposalMsg, error) {
	var msg RejectProposalMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	p, err := h.ctrl.Get(db, msg.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := h.Vaults.Authorize(ctx, db, h.auth, p.VaultID); err != nil {
		return nil, nil, err
	}
	switch p.Status {
	case StatusPending:
		return p, &msg, nil
	case StatusExecuted:
		return nil, nil, errors.Wrapf(ErrAlreadyExecuted, "proposal %X", p.ID)
	default:
		return nil, nil, errors.Wrapf(errors.ErrState, "proposal %X is %s", p.ID, p.Status)
	}
}

type ExpireProposalHandler struct{ base }

var _ keyward.Handler = ExpireProposalHandler{}

func (h ExpireProposalHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h ExpireProposalHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	p, reason, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	p.Status = StatusExpired
	p.ClosedAt = keyward.Now(ctx)
	p.CloseReason = reason
	if err := h.save(db, p); err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: p.VaultID,
		Kind:    audit.ProposalExpired,
		Actor:   h.actor(ctx),
		Subject: p.ID,
		Detail:  reason,
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: p.ID, Tags: tags}, nil
}

// validate returns the proposal together with the reason it expires. A
// pending proposal expires after its deadline. An approved one expires
// after its deadline only if the vault can no longer pay for it.
func (h ExpireProposalHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Proposal, string, error) {
	var msg ExpireProposalMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, "", errors.Wrap(err, "load msg")
	}
	p, err := h.ctrl.Get(db, msg.ProposalID)
	if err != nil {
		return nil, "", err
	}
	now := keyward.Now(ctx)
	switch p.Status {
	case StatusPending:
		if p.votingOpen(now) {
			return nil, "", errors.Wrapf(errors.ErrState, "voting open until %s", p.VotingDeadline)
		}
		return p, "voting window passed", nil
	case StatusApproved:
		if p.votingOpen(now) {
			return nil, "", errors.Wrapf(errors.ErrState, "approved proposal open until %s", p.VotingDeadline)
		}
		switch err := h.Vaults.Covers(db, p.VaultID, p.Transfers); {
		case err == nil:
			return nil, "", errors.Wrap(errors.ErrState, "approved proposal can still be executed")
		case vault.ErrInsufficientBalance.Is(err):
			return p, err.Error(), nil
		default:
			return nil, "", err
		}
	case StatusExecuted:
		return nil, "", errors.Wrapf(ErrAlreadyExecuted, "proposal %X", p.ID)
	default:
		return nil, "", errors.Wrapf(errors.ErrState, "proposal %X is %s", p.ID, p.Status)
	}
}
