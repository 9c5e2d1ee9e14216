/*
Package app links together all the extensions to construct the keywardd
application.
*/
package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/app"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/gconf"
	"github.com/keyward/keyward/store/iavl"
	"github.com/keyward/keyward/x"
	"github.com/keyward/keyward/x/audit"
	"github.com/keyward/keyward/x/crossdomain"
	"github.com/keyward/keyward/x/guardian"
	"github.com/keyward/keyward/x/pause"
	"github.com/keyward/keyward/x/proposal"
	"github.com/keyward/keyward/x/sigs"
	"github.com/keyward/keyward/x/utils"
	"github.com/keyward/keyward/x/vault"
	"github.com/prometheus/client_golang/prometheus"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the authentication used by all handlers, just
// using public key signatures.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, metrics and recovery. metrics may be nil.
func Chain(metrics *utils.Metrics) app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		metrics,
		utils.NewRecovery(),
		utils.NewActionTagger(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		// Relayed approvals and snapshot attestations carry their
		// signatures inside of the message.
		sigs.NewDecorator().AllowMissingSigs(),
		// on DeliverTx, bad tx will increment the nonce even if the
		// message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router with all message handlers registered.
func Router(authFn x.Authenticator) *app.Router {
	verifier, err := sigs.NewVerifier(sigs.DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	vaults := vault.NewController()

	r := app.NewRouter()
	gconf.RegisterRoutes(r, authFn, nil)
	sigs.RegisterRoutes(r, authFn)
	vault.RegisterRoutes(r, authFn, vaults)
	guardian.RegisterRoutes(r, authFn, vaults)
	pause.RegisterRoutes(r, authFn, vaults)
	crossdomain.RegisterRoutes(r, authFn)
	proposal.RegisterRoutes(r, authFn, proposal.Deps{
		Vaults:    vaults,
		Guardians: guardian.NewController(),
		Pauses:    pause.NewController(),
		Domains:   crossdomain.NewController(),
		Verifier:  verifier,
	})
	return r
}

// QueryRouter returns a query router exposing all state: "/policy",
// "/auth", "/vaults", "/wallets", "/guardians", "/quorums", "/pausestates",
// "/pausehistory", "/domains", "/snapshots", "/proposals", "/votes" and
// "/audit".
func QueryRouter() keyward.QueryRouter {
	r := keyward.NewQueryRouter()
	r.RegisterAll(
		gconf.RegisterQuery,
		sigs.RegisterQuery,
		vault.RegisterQuery,
		guardian.RegisterQuery,
		pause.RegisterQuery,
		crossdomain.RegisterQuery,
		proposal.RegisterQuery,
		audit.RegisterQuery,
	)
	return r
}

// Initializers returns the genesis initializers of all extensions.
func Initializers() keyward.Initializer {
	return app.ChainInitializers(
		gconf.PolicyInitializer{},
		vault.Initializer{},
		crossdomain.Initializer{},
	)
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack(metrics *utils.Metrics) keyward.Handler {
	authFn := Authenticator()
	return Chain(metrics).WithHandler(Router(authFn))
}

// Application constructs a basic ABCI application with
// the given arguments. If you are not sure what to use
// for the Handler, just use Stack().
func Application(name string, h keyward.Handler, tx keyward.TxDecoder, dbPath string, debug bool) (app.BaseApp, error) {
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	store := app.NewStoreApp(name, kv, QueryRouter(), context.Background())
	store.WithInit(Initializers())
	return app.NewBaseApp(store, tx, h, debug), nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path. An empty path keeps all data in memory.
func CommitKVStore(dbPath string) (keyward.CommitKVStore, error) {
	if dbPath == "" {
		return iavl.NewMemCommitStore(), nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name %q", dbPath)
	}

	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name), nil
}

// GenerateApp is used to create the application for the start command.
// Transaction metrics are registered with reg, which may be nil.
func GenerateApp(home string, logger log.Logger, debug bool, reg prometheus.Registerer) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "keyward.db")
	}

	var metrics *utils.Metrics
	if reg != nil {
		var err error
		if metrics, err = utils.NewMetrics(reg); err != nil {
			return nil, err
		}
	}

	application, err := Application("keywardd", Stack(metrics), TxDecoder, dbPath, debug)
	if err != nil {
		return nil, err
	}
	application.WithLogger(logger)
	return application, nil
}
