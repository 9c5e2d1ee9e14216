package vault

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/coin"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/orm"
	"github.com/keyward/keyward/store"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenesisInitializer(t *testing.T) {
	owner := keywardtest.NewCondition().Address()

	Convey("Test initializer", t, func() {
		genesis := fmt.Sprintf(`
		{
			"vaults": [
				{"name": "treasury", "owner": %q, "balances": ["7 BTC", "100 ETH"], "created_at": 1609459200},
				{"name": "payroll", "owner": %q, "created_at": "2021-01-01T00:00:00Z"}
			]
		}`, owner, owner)
		var o keyward.Options
		err := json.Unmarshal([]byte(genesis), &o)
		So(err, ShouldBeNil)

		db := store.MemStore()
		var init Initializer
		err = init.FromGenesis(o, db)
		So(err, ShouldBeNil)

		ctrl := NewController()

		Convey("Vault IDs follow the genesis order", func() {
			v, err := ctrl.Get(db, orm.EncodeSequence(1))
			So(err, ShouldBeNil)
			So(v.Name, ShouldEqual, "treasury")
			So(v.Owner, ShouldResemble, owner)

			v, err = ctrl.Get(db, orm.EncodeSequence(2))
			So(err, ShouldBeNil)
			So(v.Name, ShouldEqual, "payroll")
			So(v.Balances.IsEmpty(), ShouldBeTrue)
		})

		Convey("Balances are loaded", func() {
			eth, err := ctrl.BalanceOf(db, orm.EncodeSequence(1), "ETH")
			So(err, ShouldBeNil)
			So(eth.Equals(coin.NewCoin(100, "ETH")), ShouldBeTrue)

			btc, err := ctrl.BalanceOf(db, orm.EncodeSequence(1), "BTC")
			So(err, ShouldBeNil)
			So(btc.Amount, ShouldEqual, 7)
		})

		Convey("Unknown vaults are not found", func() {
			_, err := ctrl.Get(db, orm.EncodeSequence(3))
			So(errors.ErrNotFound.Is(err), ShouldBeTrue)
		})
	})

	Convey("Test invalid genesis", t, func() {
		db := store.MemStore()
		var init Initializer

		Convey("Unsorted balances are rejected", func() {
			genesis := fmt.Sprintf(`{"vaults": [{"name": "a", "owner": %q, "balances": ["1 ETH", "1 BTC"], "created_at": 1}]}`, owner)
			var o keyward.Options
			So(json.Unmarshal([]byte(genesis), &o), ShouldBeNil)
			So(init.FromGenesis(o, db), ShouldNotBeNil)
		})

		Convey("A vault needs an owner", func() {
			var o keyward.Options
			So(json.Unmarshal([]byte(`{"vaults": [{"name": "a", "created_at": 1}]}`), &o), ShouldBeNil)
			So(init.FromGenesis(o, db), ShouldNotBeNil)
		})
	})
}
