package gconf

import (
	"encoding/json"
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
)

func TestPolicyInitializer(t *testing.T) {
	const genesis = `
		{
			"conf": {
				"keyward": {
					"owner": "d2a1f84143a9754057e42db6d6c9f986fe0ff673",
					"default_voting_window": "48h",
					"max_batch_size": 5
				}
			}
		}
	`

	var opts keyward.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}

	db := store.MemStore()
	if err := (PolicyInitializer{}).FromGenesis(opts, db); err != nil {
		t.Fatalf("cannot load genesis: %s", err)
	}

	p, err := LoadPolicy(db)
	assert.Nil(t, err)

	want := DefaultPolicy()
	want.Owner = p.Owner
	want.DefaultVotingWindow = 48 * 60 * 60
	want.MaxBatchSize = 5
	assert.Equal(t, want, p)
	assert.Equal(t, "D2A1F84143A9754057E42DB6D6C9F986FE0FF673", p.Owner.String())
}

func TestPolicyInitializerMissing(t *testing.T) {
	db := store.MemStore()
	if err := (PolicyInitializer{}).FromGenesis(keyward.Options{}, db); err != nil {
		t.Fatalf("missing configuration must be accepted: %s", err)
	}
	p, err := LoadPolicy(db)
	assert.Nil(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}
