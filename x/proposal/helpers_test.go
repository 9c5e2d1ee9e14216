package proposal

import (
	"testing"
	"time"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/coin"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/gconf"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/orm"
	"github.com/keyward/keyward/store"
	"github.com/keyward/keyward/x/crossdomain"
	"github.com/keyward/keyward/x/guardian"
	"github.com/keyward/keyward/x/pause"
	"github.com/keyward/keyward/x/vault"
)

const day = 24 * time.Hour

type routes map[string]keyward.Handler

func (r routes) Handle(path string, h keyward.Handler) { r[path] = h }

// world is a store with a single vault and the handlers of every extension
// the proposal handlers depend on.
type world struct {
	t       testing.TB
	db      keyward.CacheableKVStore
	auth    *keywardtest.CtxAuth
	rt      routes
	start   time.Time
	at      time.Duration
	height  int64
	owner   keyward.Condition
	admin   keyward.Condition
	vaultID []byte
	// guardians are the keys of the active local guardians.
	guardians []*crypto.PrivateKey
	// attestors confirm snapshots of the remote domain, two of three.
	attestors []*crypto.PrivateKey
}

type worldOption func(*vault.Vault)

func withRemoteWeight(n uint32) worldOption {
	return func(v *vault.Vault) { v.Config.RemoteWeight = keyward.Fraction{Numerator: n, Denominator: 1} }
}

func withBalance(coins ...coin.Coin) worldOption {
	return func(v *vault.Vault) {
		var err error
		if v.Balances, err = coin.CombineCoins(coins...); err != nil {
			panic(err)
		}
	}
}

// newWorld creates a vault with the given number of active local guardians
// and quorum threshold. The vault holds 1000 ETH unless a balance option is
// given.
func newWorld(t testing.TB, guardians int, threshold uint32, opts ...worldOption) *world {
	t.Helper()
	w := &world{
		t:     t,
		db:    store.MemStore(),
		auth:  &keywardtest.CtxAuth{Key: "auth"},
		rt:    routes{},
		start: time.Date(2021, 9, 1, 12, 0, 0, 0, time.UTC),
		owner: keywardtest.NewCondition(),
		admin: keywardtest.NewCondition(),
	}

	policy := gconf.DefaultPolicy()
	policy.DomainAdmin = w.admin.Address()
	if err := gconf.Save(w.db, gconf.PolicyPkg, &policy); err != nil {
		t.Fatalf("cannot save policy: %s", err)
	}

	vaults := vault.NewController()
	v := &vault.Vault{
		Name:      "treasury",
		Owner:     w.owner.Address(),
		CreatedAt: keyward.AsUnixTime(w.start),
	}
	withBalance(coin.NewCoin(1000, "ETH"))(v)
	for _, opt := range opts {
		opt(v)
	}
	id, err := vaults.Create(w.db, v)
	if err != nil {
		t.Fatalf("cannot create vault: %s", err)
	}
	w.vaultID = id

	vault.RegisterRoutes(w.rt, w.auth, vaults)
	guardian.RegisterRoutes(w.rt, w.auth, vaults)
	pause.RegisterRoutes(w.rt, w.auth, vaults)
	crossdomain.RegisterRoutes(w.rt, w.auth)
	RegisterRoutes(w.rt, w.auth, Deps{
		Vaults:    vaults,
		Guardians: guardian.NewController(),
		Pauses:    pause.NewController(),
		Domains:   crossdomain.NewController(),
	})

	for i := 0; i < guardians; i++ {
		w.guardians = append(w.guardians, w.addGuardian())
	}
	if threshold > 0 {
		w.must(w.owner, &guardian.SetQuorumMsg{VaultID: w.vaultID, Threshold: threshold})
	}
	return w
}

// addGuardian adds and activates a guardian without delay and returns its
// key.
func (w *world) addGuardian() *crypto.PrivateKey {
	w.t.Helper()
	key := keywardtest.NewKey()
	addr := key.PublicKey().Address()
	noDelay := keyward.UnixDuration(0)
	res := w.must(w.owner, &guardian.InitiateAdditionMsg{VaultID: w.vaultID, Guardian: addr, Delay: &noDelay})
	w.must(keywardtest.NewCondition(), &guardian.ActivateGuardianMsg{GuardianID: res.Data})
	return key
}

func (w *world) now() keyward.UnixTime {
	return keyward.AsUnixTime(w.start.Add(w.at))
}

func (w *world) advance(d time.Duration) {
	w.at += d
}

// deliver runs check and deliver of the message signed by the given
// conditions. State changes are kept only if deliver succeeds.
func (w *world) deliver(msg keyward.Msg, signers ...keyward.Condition) (*keyward.DeliverResult, error) {
	w.t.Helper()
	h, ok := w.rt[msg.Path()]
	if !ok {
		w.t.Fatalf("no handler for %s", msg.Path())
	}
	w.height++
	ctx := keywardtest.Context(w.height, w.start.Add(w.at))
	ctx = w.auth.SetConditions(ctx, signers...)
	tx := &keywardtest.Tx{Msg: msg}

	cache := w.db.CacheWrap()
	_, checkErr := h.Check(ctx, cache, tx)
	cache.Discard()

	cache = w.db.CacheWrap()
	res, err := h.Deliver(ctx, cache, tx)
	if (checkErr == nil) != (err == nil) {
		w.t.Fatalf("check and deliver disagree: %v, %v", checkErr, err)
	}
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		w.t.Fatalf("cannot write: %s", err)
	}
	return res, nil
}

// must delivers the message and fails the test on error. A nil signer
// sends an unsigned transaction.
func (w *world) must(signer keyward.Condition, msg keyward.Msg) *keyward.DeliverResult {
	w.t.Helper()
	var signers []keyward.Condition
	if signer != nil {
		signers = append(signers, signer)
	}
	res, err := w.deliver(msg, signers...)
	if err != nil {
		w.t.Fatalf("%s: %+v", msg.Path(), err)
	}
	return res
}

func (w *world) propose(transfers ...vault.Transfer) []byte {
	w.t.Helper()
	res := w.must(w.owner, &CreateProposalMsg{VaultID: w.vaultID, Transfers: transfers, Reason: "payout"})
	return res.Data
}

func (w *world) vote(id []byte, key *crypto.PrivateKey) error {
	_, err := w.deliver(&VoteMsg{ProposalID: id, Proof: &SignerProof{}}, key.PublicKey().Condition())
	return err
}

func (w *world) proposal(id []byte) *Proposal {
	w.t.Helper()
	p, err := NewController().Get(w.db, id)
	if err != nil {
		w.t.Fatalf("cannot load proposal: %s", err)
	}
	return p
}

func (w *world) balance(ticker string) int64 {
	w.t.Helper()
	c, err := vault.NewController().BalanceOf(w.db, w.vaultID, ticker)
	if err != nil {
		w.t.Fatalf("cannot read balance: %s", err)
	}
	return c.Amount
}

func (w *world) wallet(addr keyward.Address) coin.Coins {
	w.t.Helper()
	coins, err := vault.NewController().WalletOf(w.db, addr)
	if err != nil {
		w.t.Fatalf("cannot read wallet: %s", err)
	}
	return coins
}

// approvalSig signs the approval digest of the proposal.
func (w *world) approvalSig(id []byte, key *crypto.PrivateKey) []byte {
	w.t.Helper()
	sig, err := key.Sign(ApprovalDigest("test-chain", w.proposal(id)))
	if err != nil {
		w.t.Fatalf("cannot sign: %s", err)
	}
	return sig
}

func transfer(amount int64, ticker string, to keyward.Address) vault.Transfer {
	return vault.Transfer{Asset: coin.NewCoin(amount, ticker), Recipient: to}
}

// registerRemote registers the domain "remote" with a one hour staleness
// window and submits a snapshot of the given remote guardians. It returns
// the proofs of all of them.
func (w *world) registerRemote(guardians []keyward.Address) []*crossdomain.RemoteGuardianProof {
	w.t.Helper()
	if w.attestors == nil {
		var addrs []keyward.Address
		for i := 0; i < 3; i++ {
			k := keywardtest.NewKey()
			w.attestors = append(w.attestors, k)
			addrs = append(addrs, k.PublicKey().Address())
		}
		w.must(w.admin, &crossdomain.RegisterDomainMsg{
			ID:                    "remote",
			Attestors:             addrs,
			ConfirmationThreshold: 2,
			StalenessWindow:       keyward.AsUnixDuration(time.Hour),
			TreeDepth:             8,
		})
	}

	leaves := make([][]byte, len(guardians))
	for i, g := range guardians {
		leaves[i] = crossdomain.Leaf(g, uint64(i+1))
	}
	root, paths, depth := crossdomain.BuildTree(leaves)
	w.advance(time.Second)
	msg := &crossdomain.SubmitSnapshotMsg{
		DomainID:  "remote",
		Root:      root,
		Depth:     depth,
		Timestamp: w.now(),
	}
	for _, k := range w.attestors[:2] {
		sig, err := k.Sign(msg.Digest())
		if err != nil {
			w.t.Fatalf("cannot sign snapshot: %s", err)
		}
		msg.Attestations = append(msg.Attestations, sig)
	}
	res := w.must(nil, msg)

	proofs := make([]*crossdomain.RemoteGuardianProof, len(guardians))
	for i, g := range guardians {
		proofs[i] = &crossdomain.RemoteGuardianProof{
			DomainID:   "remote",
			SnapshotID: orm.DecodeSequence(res.Data),
			Guardian:   g,
			TokenID:    uint64(i + 1),
			Path:       paths[i],
			ClaimedAt:  w.now(),
		}
	}
	return proofs
}

// remoteVote votes with the proof signed as the transaction signer.
func (w *world) remoteVote(id []byte, key *crypto.PrivateKey, proof *crossdomain.RemoteGuardianProof) error {
	_, err := w.deliver(&VoteMsg{ProposalID: id, Proof: &RemoteProof{Proof: proof}}, key.PublicKey().Condition())
	return err
}
