package gconf

import (
	"time"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

// PolicyPkg is the configuration key of the global custody policy.
const PolicyPkg = "keyward"

// Policy holds the global defaults of the custody engine. Vaults may
// override the timing values and the remote vote weight in their own
// configuration.
type Policy struct {
	// Owner is the only address allowed to update the policy.
	Owner keyward.Address `json:"owner"`
	// DomainAdmin registers remote domains.
	DomainAdmin keyward.Address `json:"domain_admin"`
	// DefaultActivationDelay is the time a new guardian stays pending.
	DefaultActivationDelay keyward.UnixDuration `json:"default_activation_delay"`
	// DefaultVotingWindow is the voting period of a single transfer
	// proposal.
	DefaultVotingWindow keyward.UnixDuration `json:"default_voting_window"`
	// BatchVotingWindow is the voting period of a batch proposal.
	BatchVotingWindow keyward.UnixDuration `json:"batch_voting_window"`
	// MinVotingWindow and MaxVotingWindow bound a voting window requested
	// by a proposal author.
	MinVotingWindow keyward.UnixDuration `json:"min_voting_window"`
	MaxVotingWindow keyward.UnixDuration `json:"max_voting_window"`
	// DefaultRemoteWeight is the weight of a vote cast by a remote
	// guardian.
	DefaultRemoteWeight keyward.Fraction `json:"default_remote_weight"`
	// MaxBatchSize is the greatest number of transfers in a single
	// proposal.
	MaxBatchSize uint32 `json:"max_batch_size"`
}

var _ OwnedConfig = (*Policy)(nil)

const day = 24 * time.Hour

// DefaultPolicy returns the policy used when none was configured.
func DefaultPolicy() Policy {
	return Policy{
		DefaultActivationDelay: keyward.AsUnixDuration(7 * day),
		DefaultVotingWindow:    keyward.AsUnixDuration(3 * day),
		BatchVotingWindow:      keyward.AsUnixDuration(3 * day),
		MinVotingWindow:        keyward.AsUnixDuration(time.Hour),
		MaxVotingWindow:        keyward.AsUnixDuration(30 * day),
		DefaultRemoteWeight:    keyward.One,
		MaxBatchSize:           10,
	}
}

func (p *Policy) Marshal() ([]byte, error) {
	return codec.Marshal(p)
}

func (p *Policy) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, p)
}

func (p *Policy) GetOwner() keyward.Address {
	return p.Owner
}

func (p *Policy) Validate() error {
	var errs error
	if p.Owner != nil {
		errs = errors.AppendField(errs, "Owner", p.Owner.Validate())
	}
	if p.DomainAdmin != nil {
		errs = errors.AppendField(errs, "DomainAdmin", p.DomainAdmin.Validate())
	}
	errs = errors.AppendField(errs, "DefaultActivationDelay", p.DefaultActivationDelay.Validate())
	if p.MinVotingWindow <= 0 {
		errs = errors.Append(errs, errors.Field("MinVotingWindow", errors.ErrInput, "must be positive"))
	}
	if p.MaxVotingWindow < p.MinVotingWindow {
		errs = errors.Append(errs, errors.Field("MaxVotingWindow", errors.ErrInput, "lower than minimum"))
	}
	if !p.inWindowBounds(p.DefaultVotingWindow) {
		errs = errors.Append(errs, errors.Field("DefaultVotingWindow", errors.ErrInput, "out of bounds"))
	}
	if !p.inWindowBounds(p.BatchVotingWindow) {
		errs = errors.Append(errs, errors.Field("BatchVotingWindow", errors.ErrInput, "out of bounds"))
	}
	if err := p.DefaultRemoteWeight.Validate(); err != nil {
		errs = errors.AppendField(errs, "DefaultRemoteWeight", err)
	} else if p.DefaultRemoteWeight.IsZero() {
		errs = errors.Append(errs, errors.Field("DefaultRemoteWeight", errors.ErrInput, "must not be zero"))
	}
	if p.MaxBatchSize == 0 {
		errs = errors.Append(errs, errors.Field("MaxBatchSize", errors.ErrInput, "must be positive"))
	}
	return errs
}

func (p *Policy) inWindowBounds(d keyward.UnixDuration) bool {
	return d >= p.MinVotingWindow && d <= p.MaxVotingWindow
}

// InWindowBounds returns true if d is an acceptable proposal voting window.
func (p Policy) InWindowBounds(d keyward.UnixDuration) bool {
	return p.inWindowBounds(d)
}

// LoadPolicy returns the stored policy or the default one if none was
// configured.
func LoadPolicy(db ReadStore) (Policy, error) {
	var p Policy
	switch err := Load(db, PolicyPkg, &p); {
	case err == nil:
		return p, nil
	case errors.ErrNotFound.Is(err):
		return DefaultPolicy(), nil
	default:
		return Policy{}, err
	}
}
