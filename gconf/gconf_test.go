package gconf

import (
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
)

type myconfig struct {
	Owner keyward.Address
	Num   int64
	Str   string
}

func (c *myconfig) Marshal() ([]byte, error)   { return codec.Marshal(c) }
func (c *myconfig) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, c) }
func (c *myconfig) GetOwner() keyward.Address  { return c.Owner }
func (c *myconfig) Validate() error {
	if c.Num < 0 {
		return errors.Wrap(errors.ErrInput, "negative num")
	}
	return nil
}

func TestSaveLoad(t *testing.T) {
	cases := map[string]struct {
		Conf        *myconfig
		WantSaveErr *errors.Error
	}{
		"valid": {
			Conf: &myconfig{Num: 852151421, Str: "foobar"},
		},
		"invalid configuration is not saved": {
			Conf:        &myconfig{Num: -1},
			WantSaveErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			err := Save(db, "mypkg", tc.Conf)
			assert.IsErr(t, tc.WantSaveErr, err)

			var got myconfig
			err = Load(db, "mypkg", &got)
			if tc.WantSaveErr != nil {
				assert.IsErr(t, errors.ErrNotFound, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, *tc.Conf, got)
		})
	}
}

func TestLoadPolicyDefault(t *testing.T) {
	db := store.MemStore()
	p, err := LoadPolicy(db)
	assert.Nil(t, err)
	assert.Equal(t, DefaultPolicy(), p)
	assert.Nil(t, p.Validate())
}

func TestPolicyValidate(t *testing.T) {
	cases := map[string]struct {
		Mod     func(*Policy)
		WantErr *errors.Error
	}{
		"default": {
			Mod: func(*Policy) {},
		},
		"zero batch size": {
			Mod:     func(p *Policy) { p.MaxBatchSize = 0 },
			WantErr: errors.ErrInput,
		},
		"voting window above maximum": {
			Mod:     func(p *Policy) { p.DefaultVotingWindow = p.MaxVotingWindow + 1 },
			WantErr: errors.ErrInput,
		},
		"zero remote weight": {
			Mod:     func(p *Policy) { p.DefaultRemoteWeight = keyward.Fraction{} },
			WantErr: errors.ErrInput,
		},
		"negative activation delay": {
			Mod:     func(p *Policy) { p.DefaultActivationDelay = -1 },
			WantErr: errors.ErrState,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			p := DefaultPolicy()
			tc.Mod(&p)
			assert.IsErr(t, tc.WantErr, p.Validate())
		})
	}
}
