package gconf

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x"
)

func init() {
	codec.RegisterMsg(&UpdatePolicyMsg{}, "keyward/gconf/UpdatePolicyMsg")
}

const pathUpdatePolicyMsg = "gconf/update_policy"

// UpdatePolicyMsg changes the global policy. Only non zero fields of the
// patch are applied.
type UpdatePolicyMsg struct {
	Patch *Policy `json:"patch"`
}

var _ keyward.Msg = (*UpdatePolicyMsg)(nil)

func (m *UpdatePolicyMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *UpdatePolicyMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

func (UpdatePolicyMsg) Path() string {
	return pathUpdatePolicyMsg
}

// Validate checks the fields of the patch that are set.
func (m *UpdatePolicyMsg) Validate() error {
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	p := m.Patch
	var errs error
	if p.Owner != nil {
		errs = errors.AppendField(errs, "Owner", p.Owner.Validate())
	}
	if p.DomainAdmin != nil {
		errs = errors.AppendField(errs, "DomainAdmin", p.DomainAdmin.Validate())
	}
	for name, d := range map[string]keyward.UnixDuration{
		"DefaultActivationDelay": p.DefaultActivationDelay,
		"DefaultVotingWindow":    p.DefaultVotingWindow,
		"BatchVotingWindow":      p.BatchVotingWindow,
		"MinVotingWindow":        p.MinVotingWindow,
		"MaxVotingWindow":        p.MaxVotingWindow,
	} {
		errs = errors.AppendField(errs, name, d.Validate())
	}
	errs = errors.AppendField(errs, "DefaultRemoteWeight", p.DefaultRemoteWeight.Validate())
	return errs
}

// RegisterRoutes registers the policy update handler. Every delivered change
// is passed to hook, which may be nil.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator, hook UpdateHook) {
	h := NewUpdateConfigurationHandler(PolicyPkg, &Policy{}, auth, nil)
	r.Handle(pathUpdatePolicyMsg, h.WithUpdateHook(hook))
}

// RegisterQuery exposes the current policy under "/policy".
func RegisterQuery(qr keyward.QueryRouter) {
	qr.Register("/policy", policyQuery{})
}

type policyQuery struct{}

func (policyQuery) Query(db keyward.ReadOnlyKVStore, mod string, data []byte) ([]keyward.Model, error) {
	p, err := LoadPolicy(db)
	if err != nil {
		return nil, err
	}
	raw, err := p.Marshal()
	if err != nil {
		return nil, err
	}
	return []keyward.Model{keyward.Pair(confKey(PolicyPkg), raw)}, nil
}
