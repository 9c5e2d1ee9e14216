package server

import (
	"encoding/json"
	"io/ioutil"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/store"
)

// ValidateGenesis loads every given genesis file into a throw away store
// and returns the first failure.
func ValidateGenesis(ini keyward.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		if err := validateGenesis(ini, path); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateGenesis(ini keyward.Initializer, genesisPath string) error {
	b, err := ioutil.ReadFile(genesisPath)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	var genesis struct {
		State keyward.Options `json:"app_state"`
	}
	if err := json.Unmarshal(b, &genesis); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot JSON deserialize genesis: %s", err)
	}

	// Use in memory store because we want to discard the result.
	db := store.MemStore()
	if err := ini.FromGenesis(genesis.State, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	return nil
}
