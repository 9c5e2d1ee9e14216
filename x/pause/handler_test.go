package pause

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

type routes map[string]keyward.Handler

func (r routes) Handle(path string, h keyward.Handler) { r[path] = h }

func TestPauseSwitch(t *testing.T) {
	owner := keywardtest.NewCondition()
	stranger := keywardtest.NewCondition()
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

	type call struct {
		Signer  keyward.Condition
		Msg     func(vaultID []byte) keyward.Msg
		WantErr *errors.Error
	}
	pause := func(reason string) func([]byte) keyward.Msg {
		return func(id []byte) keyward.Msg { return &PauseMsg{VaultID: id, Reason: reason} }
	}
	unpause := func(id []byte) keyward.Msg { return &UnpauseMsg{VaultID: id} }
	update := func(reason string) func([]byte) keyward.Msg {
		return func(id []byte) keyward.Msg { return &UpdateReasonMsg{VaultID: id, Reason: reason} }
	}

	cases := map[string]struct {
		Calls       []call
		WantPaused  bool
		WantReason  string
		WantActions []Action
	}{
		"pause and unpause": {
			Calls: []call{
				{Signer: owner, Msg: pause("key leak")},
				{Signer: owner, Msg: unpause},
			},
			WantActions: []Action{ActionPause, ActionUnpause},
		},
		"reason can be updated while paused": {
			Calls: []call{
				{Signer: owner, Msg: pause("key leak")},
				{Signer: owner, Msg: update("investigation")},
			},
			WantPaused:  true,
			WantReason:  "investigation",
			WantActions: []Action{ActionPause, ActionUpdateReason},
		},
		"pausing a paused vault is a state error": {
			Calls: []call{
				{Signer: owner, Msg: pause("first")},
				{Signer: owner, Msg: pause("second"), WantErr: errors.ErrState},
			},
			WantPaused:  true,
			WantReason:  "first",
			WantActions: []Action{ActionPause},
		},
		"unpausing an active vault is a state error": {
			Calls: []call{
				{Signer: owner, Msg: unpause, WantErr: errors.ErrState},
			},
		},
		"reason of an active vault cannot be updated": {
			Calls: []call{
				{Signer: owner, Msg: update("nothing"), WantErr: errors.ErrState},
			},
		},
		"only the owner controls the switch": {
			Calls: []call{
				{Signer: stranger, Msg: pause("attack"), WantErr: vault.ErrNotOwner},
				{Signer: owner, Msg: pause("attack")},
				{Signer: stranger, Msg: unpause, WantErr: vault.ErrNotOwner},
			},
			WantPaused:  true,
			WantReason:  "attack",
			WantActions: []Action{ActionPause},
		},
		"reason is required": {
			Calls: []call{
				{Signer: owner, Msg: pause(""), WantErr: errors.ErrEmpty},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			vaultID, err := vault.NewController().Create(db, &vault.Vault{
				Name:      "v",
				Owner:     owner.Address(),
				CreatedAt: keyward.AsUnixTime(start),
			})
			assert.Nil(t, err)

			for i, c := range tc.Calls {
				auth := &keywardtest.Auth{Signer: c.Signer}
				rt := routes{}
				RegisterRoutes(rt, auth, vault.NewController())
				msg := c.Msg(vaultID)
				ctx := keywardtest.Context(int64(i+1), start.Add(time.Duration(i)*time.Hour))

				cache := db.CacheWrap()
				_, err := rt[msg.Path()].Deliver(ctx, cache, &keywardtest.Tx{Msg: msg})
				if !c.WantErr.Is(err) {
					t.Fatalf("call %d: unexpected error: %+v", i, err)
				}
				if err == nil {
					assert.Nil(t, cache.Write())
				} else {
					cache.Discard()
				}
			}

			ctrl := NewController()
			paused, err := ctrl.IsPaused(db, vaultID)
			assert.Nil(t, err)
			assert.Equal(t, tc.WantPaused, paused)

			state, err := ctrl.State(db, vaultID)
			assert.Nil(t, err)
			assert.Equal(t, tc.WantReason, state.Reason)
			assert.Equal(t, int64(len(tc.WantActions)), state.HistoryLen)

			history, err := ctrl.History(db, vaultID)
			assert.Nil(t, err)
			var actions []Action
			for i, r := range history {
				assert.Equal(t, int64(i+1), r.Index)
				assert.Equal(t, owner.Address(), r.Initiator)
				actions = append(actions, r.Action)
			}
			assert.Equal(t, tc.WantActions, actions)

			events, err := audit.History(db, vaultID)
			assert.Nil(t, err)
			assert.Equal(t, len(tc.WantActions), len(events))

			if tc.WantPaused {
				assert.IsErr(t, ErrVaultPaused, ctrl.RequireActive(db, vaultID))
			} else {
				assert.Nil(t, ctrl.RequireActive(db, vaultID))
			}
		})
	}
}

func TestHistoryRecordsTransitions(t *testing.T) {
	db := store.MemStore()
	owner := keywardtest.NewCondition()
	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	vaultID, err := vault.NewController().Create(db, &vault.Vault{
		Name: "v", Owner: owner.Address(), CreatedAt: keyward.AsUnixTime(start),
	})
	assert.Nil(t, err)

	auth := &keywardtest.Auth{Signer: owner}
	rt := routes{}
	RegisterRoutes(rt, auth, vault.NewController())

	msgs := []keyward.Msg{
		&PauseMsg{VaultID: vaultID, Reason: "one"},
		&UnpauseMsg{VaultID: vaultID},
		&PauseMsg{VaultID: vaultID, Reason: "two"},
	}
	for i, msg := range msgs {
		ctx := keywardtest.Context(int64(i+1), start.Add(time.Duration(i)*time.Minute))
		_, err := rt[msg.Path()].Deliver(ctx, db, &keywardtest.Tx{Msg: msg})
		assert.Nil(t, err)
	}

	history, err := NewController().History(db, vaultID)
	assert.Nil(t, err)
	assert.Equal(t, 3, len(history))
	assert.Equal(t, StatusActive, history[0].Previous)
	assert.Equal(t, StatusPaused, history[0].Next)
	assert.Equal(t, StatusPaused, history[1].Previous)
	assert.Equal(t, StatusActive, history[1].Next)
	assert.Equal(t, "two", history[2].Reason)
	assert.Equal(t, keyward.AsUnixTime(start.Add(2*time.Minute)), history[2].Timestamp)

	state, err := NewController().State(db, vaultID)
	assert.Nil(t, err)
	assert.Equal(t, keyward.AsUnixTime(start.Add(2*time.Minute)), state.PausedAt)
}
