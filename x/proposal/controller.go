package proposal

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// BaseController reads proposals and their votes.
type BaseController struct {
	proposals orm.ModelBucket
	votes     orm.ModelBucket
}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		proposals: NewProposalBucket(),
		votes:     NewVoteBucket(),
	}
}

// Get returns the proposal or ErrNotFound.
func (c BaseController) Get(db keyward.ReadOnlyKVStore, id []byte) (*Proposal, error) {
	var p Proposal
	if err := c.proposals.One(db, id, &p); err != nil {
		return nil, errors.Wrapf(err, "proposal %X", id)
	}
	return &p, nil
}

// ByVault returns all proposals of the vault in creation order.
func (c BaseController) ByVault(db keyward.ReadOnlyKVStore, vaultID []byte) ([]*Proposal, error) {
	var res []*Proposal
	if _, err := c.proposals.ByIndex(db, "vault", vaultID, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// HasVoted returns true if a vote of the voter was counted.
func (c BaseController) HasVoted(db keyward.ReadOnlyKVStore, proposalID []byte, voter keyward.Address) (bool, error) {
	switch err := c.votes.Has(db, voteKey(proposalID, voter)); {
	case err == nil:
		return true, nil
	case errors.ErrNotFound.Is(err):
		return false, nil
	default:
		return false, err
	}
}

// Votes returns all votes counted for the proposal.
func (c BaseController) Votes(db keyward.ReadOnlyKVStore, proposalID []byte) ([]*Vote, error) {
	it, err := c.votes.PrefixScan(db, proposalID, false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var res []*Vote
	for {
		var v Vote
		switch _, err := it.LoadNext(&v); {
		case err == nil:
			res = append(res, &v)
		case errors.ErrIteratorDone.Is(err):
			return res, nil
		default:
			return nil, err
		}
	}
}

// Tally recomputes the approval weight from the stored votes.
func (c BaseController) Tally(db keyward.ReadOnlyKVStore, proposalID []byte) (keyward.Fraction, error) {
	votes, err := c.Votes(db, proposalID)
	if err != nil {
		return keyward.Fraction{}, err
	}
	total := keyward.Fraction{Denominator: 1}
	for _, v := range votes {
		if total, err = total.Add(v.Weight); err != nil {
			return keyward.Fraction{}, errors.Wrapf(err, "vote of %s", v.Voter)
		}
	}
	return total, nil
}

// count stores the vote and adds its weight to the proposal. It returns
// true when the proposal became approved.
func (c BaseController) count(db keyward.KVStore, p *Proposal, b ballot, now keyward.UnixTime, threshold uint32) (bool, error) {
	v := &Vote{
		ProposalID: p.ID,
		Voter:      b.voter,
		Domain:     b.domain,
		Weight:     b.weight,
		CastAt:     now,
	}
	if _, err := c.votes.Put(db, voteKey(p.ID, b.voter), v); err != nil {
		return false, errors.Wrap(err, "cannot store vote")
	}
	weight, err := p.ApprovalWeight.Add(b.weight)
	if err != nil {
		return false, errors.Wrap(err, "approval weight")
	}
	p.ApprovalWeight = weight
	if b.remote() {
		p.RemoteVotes++
	} else {
		p.LocalVotes++
	}
	if p.Status == StatusPending && p.ApprovalWeight.GTE(threshold) {
		p.Status = StatusApproved
		p.ApprovedAt = now
		return true, nil
	}
	return false, nil
}
