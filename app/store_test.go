package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/orm"
	"github.com/keyward/keyward/store/iavl"
	"github.com/keyward/keyward/x/vault"
	abci "github.com/tendermint/tendermint/abci/types"
)

func TestStoreAppGenesisAndQuery(t *testing.T) {
	owner := keywardtest.NewCondition().Address()
	genesis := fmt.Sprintf(`{
		"vaults": [
			{"name": "treasury", "owner": %q, "balances": ["7 BTC", "100 ETH"], "created_at": 1609459200}
		]
	}`, owner.String())

	qr := keyward.NewQueryRouter()
	vault.RegisterQuery(qr)
	s := NewStoreApp("keyward", iavl.NewMemCommitStore(), qr, context.Background())
	s.WithInit(ChainInitializers(vault.Initializer{}))

	s.InitChain(abci.RequestInitChain{ChainId: "test-chain-1", AppStateBytes: []byte(genesis)})
	assert.Equal(t, "test-chain-1", s.GetChainID())

	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	s.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{Height: 1, Time: now}})
	height, _ := keyward.GetHeight(s.BlockContext())
	assert.Equal(t, int64(1), height)
	assert.Equal(t, keyward.AsUnixTime(now), keyward.Now(s.BlockContext()))
	s.EndBlock(abci.RequestEndBlock{})
	commit := s.Commit()
	if len(commit.Data) == 0 {
		t.Fatal("empty app hash")
	}

	info := s.Info(abci.RequestInfo{})
	assert.Equal(t, int64(1), info.LastBlockHeight)
	assert.Equal(t, commit.Data, info.LastBlockAppHash)

	res := s.Query(abci.RequestQuery{Path: "/vaults", Data: orm.EncodeSequence(1)})
	assert.Equal(t, uint32(0), res.Code)
	var v vault.Vault
	assert.Nil(t, UnmarshalOneResult(res.Value, &v))
	assert.Equal(t, "treasury", v.Name)
	assert.Equal(t, owner, v.Owner)

	res = s.Query(abci.RequestQuery{Path: "/unknown"})
	if res.Code == 0 {
		t.Fatal("unknown path must fail")
	}
}

func TestStoreAppRejectsSecondGenesis(t *testing.T) {
	s := NewStoreApp("keyward", iavl.NewMemCommitStore(), keyward.NewQueryRouter(), context.Background())
	s.InitChain(abci.RequestInitChain{ChainId: "test-chain-1", AppStateBytes: []byte(`{}`)})
	assert.Panics(t, func() {
		s.InitChain(abci.RequestInitChain{ChainId: "test-chain-1", AppStateBytes: []byte(`{}`)})
	})
}

func TestResultSets(t *testing.T) {
	models := []keyward.Model{
		keyward.Pair([]byte("a"), []byte("1")),
		keyward.Pair([]byte("b"), []byte("2")),
	}
	joined, err := JoinResults(ResultsFromKeys(models), ResultsFromValues(models))
	assert.Nil(t, err)
	assert.Equal(t, models, joined)

	_, err = JoinResults(ResultsFromKeys(models), ResultsFromValues(models[1:]))
	if err == nil {
		t.Fatal("size mismatch must fail")
	}
}
