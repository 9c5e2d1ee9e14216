package guardian

import (
	"testing"
	"time"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
	"github.com/keyward/keyward/x/audit"
	"github.com/keyward/keyward/x/vault"
)

const day = 24 * time.Hour

type routes map[string]keyward.Handler

func (r routes) Handle(path string, h keyward.Handler) { r[path] = h }

// step is a single message delivered at a given time after the start.
type step struct {
	At      time.Duration
	Signer  keyward.Condition
	Msg     keyward.Msg
	WantErr *errors.Error
}

type env struct {
	db      keyward.CacheableKVStore
	start   time.Time
	owner   keyward.Condition
	vaultID []byte
}

func newEnv(t testing.TB) *env {
	t.Helper()
	db := store.MemStore()
	owner := keywardtest.NewCondition()
	start := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := vault.NewController().Create(db, &vault.Vault{
		Name:      "test",
		Owner:     owner.Address(),
		CreatedAt: keyward.AsUnixTime(start),
	})
	if err != nil {
		t.Fatalf("cannot create vault: %s", err)
	}
	return &env{db: db, start: start, owner: owner, vaultID: id}
}

func (e *env) run(t testing.TB, steps ...step) {
	t.Helper()
	for i, s := range steps {
		auth := &keywardtest.Auth{Signer: s.Signer}
		rt := routes{}
		RegisterRoutes(rt, auth, vault.NewController())
		h, ok := rt[s.Msg.Path()]
		if !ok {
			t.Fatalf("step %d: no handler for %s", i, s.Msg.Path())
		}
		ctx := keywardtest.Context(int64(i+1), e.start.Add(s.At))
		tx := &keywardtest.Tx{Msg: s.Msg}

		cache := e.db.CacheWrap()
		if _, err := h.Check(ctx, cache, tx); !s.WantErr.Is(err) {
			t.Fatalf("step %d: unexpected check error: %+v", i, err)
		}
		cache.Discard()

		cache = e.db.CacheWrap()
		_, err := h.Deliver(ctx, cache, tx)
		if !s.WantErr.Is(err) {
			t.Fatalf("step %d: unexpected deliver error: %+v", i, err)
		}
		if err == nil {
			if err := cache.Write(); err != nil {
				t.Fatalf("step %d: write: %s", i, err)
			}
		} else {
			cache.Discard()
		}
	}
}

func TestGuardianLifecycle(t *testing.T) {
	alice := keywardtest.NewCondition().Address()
	stranger := keywardtest.NewCondition()
	delay := keyward.AsUnixDuration(2 * day)
	noDelay := keyward.UnixDuration(0)
	firstID := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	secondID := []byte{0, 0, 0, 0, 0, 0, 0, 2}

	cases := map[string]struct {
		Steps      func(e *env) []step
		WantStatus map[string]Status
		WantActive bool
	}{
		"pending guardian activates after the delay": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &delay}},
					{At: day, Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}, WantErr: ErrPendingDelayNotElapsed},
					{At: 2 * day, Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}},
				}
			},
			WantStatus: map[string]Status{string(firstID): StatusActive},
			WantActive: true,
		},
		"activation twice is a state error": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &noDelay}},
					{Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}},
					{Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}, WantErr: errors.ErrState},
				}
			},
			WantStatus: map[string]Status{string(firstID): StatusActive},
			WantActive: true,
		},
		"only the owner adds guardians": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: stranger, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice}, WantErr: vault.ErrNotOwner},
				}
			},
		},
		"live guardian cannot be added twice": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &noDelay}},
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice}, WantErr: ErrAlreadyPending},
					{Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}},
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice}, WantErr: ErrAlreadyActive},
				}
			},
			WantStatus: map[string]Status{string(firstID): StatusActive},
			WantActive: true,
		},
		"cancelled guardian cannot be activated": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &delay}},
					{At: day, Signer: stranger, Msg: &CancelGuardianMsg{GuardianID: firstID}, WantErr: vault.ErrNotOwner},
					{At: day, Signer: e.owner, Msg: &CancelGuardianMsg{GuardianID: firstID}},
					{At: 3 * day, Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}, WantErr: errors.ErrState},
				}
			},
			WantStatus: map[string]Status{string(firstID): StatusRemoved},
		},
		"active guardian cannot be cancelled": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &noDelay}},
					{Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}},
					{Signer: e.owner, Msg: &CancelGuardianMsg{GuardianID: firstID}, WantErr: errors.ErrState},
				}
			},
			WantStatus: map[string]Status{string(firstID): StatusActive},
			WantActive: true,
		},
		"pending guardian cannot be removed": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &delay}},
					{Signer: e.owner, Msg: &RemoveGuardianMsg{VaultID: e.vaultID, Guardian: alice}, WantErr: errors.ErrState},
				}
			},
			WantStatus: map[string]Status{string(firstID): StatusPending},
		},
		"removal is immediate and re-adding creates a new record": {
			Steps: func(e *env) []step {
				return []step{
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &noDelay}},
					{Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: firstID}},
					{Signer: e.owner, Msg: &RemoveGuardianMsg{VaultID: e.vaultID, Guardian: alice}},
					{Signer: e.owner, Msg: &RemoveGuardianMsg{VaultID: e.vaultID, Guardian: alice}, WantErr: ErrNotActiveGuardian},
					{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice, Delay: &delay}},
				}
			},
			WantStatus: map[string]Status{
				string(firstID):  StatusRemoved,
				string(secondID): StatusPending,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			e := newEnv(t)
			e.run(t, tc.Steps(e)...)

			ctrl := NewController()
			for id, want := range tc.WantStatus {
				g, err := ctrl.Get(e.db, []byte(id))
				assert.Nil(t, err)
				assert.Equal(t, want, g.Status)
			}
			active, err := ctrl.IsActive(e.db, e.vaultID, alice)
			assert.Nil(t, err)
			assert.Equal(t, tc.WantActive, active)
		})
	}
}

func TestActivationDelayDefaultsToVaultConfig(t *testing.T) {
	e := newEnv(t)
	hour := keyward.AsUnixDuration(time.Hour)
	id, err := vault.NewController().Create(e.db, &vault.Vault{
		Name:      "fast",
		Owner:     e.owner.Address(),
		Config:    vault.VaultConfig{ActivationDelay: hour},
		CreatedAt: keyward.AsUnixTime(e.start),
	})
	assert.Nil(t, err)

	alice := keywardtest.NewCondition().Address()
	e.run(t, step{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: id, Guardian: alice}})

	g, err := NewController().Live(e.db, id, alice)
	assert.Nil(t, err)
	assert.Equal(t, StatusPending, g.Status)
	assert.Equal(t, keyward.AsUnixTime(e.start).AddDuration(hour), g.ActivationTime)
}

// Scenario: a guardian added with a seven day delay cannot be activated on
// day six and can be activated one second after the delay elapsed.
func TestSevenDayActivationDelay(t *testing.T) {
	e := newEnv(t)
	alice := keywardtest.NewCondition().Address()
	stranger := keywardtest.NewCondition()
	id := []byte{0, 0, 0, 0, 0, 0, 0, 1}

	// The default policy delay of seven days applies.
	e.run(t,
		step{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: alice}},
		step{At: 6 * day, Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: id}, WantErr: ErrPendingDelayNotElapsed},
		step{At: 7*day + time.Second, Signer: stranger, Msg: &ActivateGuardianMsg{GuardianID: id}},
	)

	active, err := NewController().IsActive(e.db, e.vaultID, alice)
	assert.Nil(t, err)
	assert.Equal(t, true, active)

	events, err := audit.History(e.db, e.vaultID)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(events))
	assert.Equal(t, audit.GuardianAdded, events[0].Kind)
	assert.Equal(t, audit.GuardianActivated, events[1].Kind)
	assert.Equal(t, stranger.Address(), events[1].Actor)
}

func TestQuorumAndActiveGuardians(t *testing.T) {
	e := newEnv(t)
	noDelay := keyward.UnixDuration(0)
	a := keywardtest.NewCondition().Address()
	b := keywardtest.NewCondition().Address()
	c := keywardtest.NewCondition().Address()

	ctrl := NewController()
	threshold, err := ctrl.Threshold(e.db, e.vaultID)
	assert.Nil(t, err)
	assert.Equal(t, uint32(0), threshold)

	e.run(t,
		step{Signer: e.owner, Msg: &SetQuorumMsg{VaultID: e.vaultID, Threshold: 2}},
		step{Signer: keywardtest.NewCondition(), Msg: &SetQuorumMsg{VaultID: e.vaultID, Threshold: 1}, WantErr: vault.ErrNotOwner},
		step{Signer: e.owner, Msg: &SetQuorumMsg{VaultID: e.vaultID, Threshold: 0}, WantErr: errors.ErrInput},
		step{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: a, Delay: &noDelay}},
		step{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: b, Delay: &noDelay}},
		step{Signer: e.owner, Msg: &InitiateAdditionMsg{VaultID: e.vaultID, Guardian: c, Delay: &noDelay}},
		step{Signer: e.owner, Msg: &ActivateGuardianMsg{GuardianID: []byte{0, 0, 0, 0, 0, 0, 0, 1}}},
		step{Signer: e.owner, Msg: &ActivateGuardianMsg{GuardianID: []byte{0, 0, 0, 0, 0, 0, 0, 3}}},
	)

	threshold, err = ctrl.Threshold(e.db, e.vaultID)
	assert.Nil(t, err)
	assert.Equal(t, uint32(2), threshold)

	active, err := ctrl.ActiveGuardians(e.db, e.vaultID)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(active))
	assert.Equal(t, a, active[0].Address)
	assert.Equal(t, c, active[1].Address)
}
