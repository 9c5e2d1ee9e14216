package server

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/keyward/keyward/errors"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// AppStateKey is the key in the tendermint genesis file
	// that holds the custody engine state.
	AppStateKey = "app_state"
	// DirConfig is the sub directory of home holding genesis.json.
	DirConfig = "config"
	// GenesisFile is the name of the tendermint genesis file.
	GenesisFile = "genesis.json"

	flagForce = "f"
)

// GenOptions can parse command-line and flag to
// generate default app_state for the genesis file.
type GenOptions func(args []string) (json.RawMessage, error)

// InitCmd sets the app_state of an existing tendermint genesis file.
// The genesis file must be created first by tendermint init. An already
// set app_state is only overwritten when -f is given.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	force := fs.Bool(flagForce, false, "overwrite an existing app_state")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	genFile := filepath.Join(home, DirConfig, GenesisFile)
	if _, err := os.Stat(genFile); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrNotFound, "%s: run tendermint init first", genFile)
		}
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}

	options, err := gen(fs.Args())
	if err != nil {
		return err
	}
	if err := addGenesisOptions(genFile, options, *force); err != nil {
		return err
	}
	logger.Info("App state written", "path", genFile)
	return nil
}

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

func addGenesisOptions(filename string, options json.RawMessage, force bool) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis file: %s", err)
	}
	if state, ok := doc[AppStateKey]; ok && !force && !isEmptyState(state) {
		return errors.Wrap(errors.ErrState, "app_state already set, use -f to overwrite")
	}

	doc[AppStateKey] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := ioutil.WriteFile(filename, out, 0600); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func isEmptyState(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}":
		return true
	}
	return false
}
