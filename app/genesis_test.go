package app

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
)

type recordingInit struct {
	name  string
	calls *[]string
	err   error
}

func (r recordingInit) FromGenesis(opts keyward.Options, db keyward.KVStore) error {
	*r.calls = append(*r.calls, r.name)
	return r.err
}

func TestChainInitializers(t *testing.T) {
	var calls []string
	init := ChainInitializers(
		recordingInit{name: "first", calls: &calls},
		recordingInit{name: "second", calls: &calls, err: errors.ErrInput},
		recordingInit{name: "third", calls: &calls},
	)
	err := init.FromGenesis(keyward.Options{}, store.MemStore())
	assert.IsErr(t, errors.ErrInput, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestLoadGenesis(t *testing.T) {
	dir, err := ioutil.TempDir("", "genesis")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "genesis.json")
	raw := `{"chain_id": "test-chain", "app_state": {"vaults": []}}`
	assert.Nil(t, ioutil.WriteFile(path, []byte(raw), 0600))

	gen, err := LoadGenesis(path)
	assert.Nil(t, err)
	assert.Equal(t, "test-chain", gen.ChainID)
	assert.Equal(t, "[]", string(gen.AppState["vaults"]))

	_, err = LoadGenesis(filepath.Join(dir, "missing.json"))
	assert.IsErr(t, errors.ErrInput, err)
}
