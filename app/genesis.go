package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// Genesis file format, designed to be overlayed with tendermint genesis
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState keyward.Options `json:"app_state"`
}

// LoadGenesis tries to load a given file into a Genesis struct
func LoadGenesis(filePath string) (Genesis, error) {
	var gen Genesis
	bz, err := ioutil.ReadFile(filePath)
	if err != nil {
		return gen, errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := json.Unmarshal(bz, &gen); err != nil {
		return gen, errors.Wrapf(errors.ErrInput, "genesis file: %s", err)
	}
	return gen, nil
}

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...keyward.Initializer) keyward.Initializer {
	return chainInitializer{inits}
}

type chainInitializer struct {
	inits []keyward.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts keyward.Options, kv keyward.KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return errors.Wrapf(err, "%T", i)
		}
	}
	return nil
}
