package coin

import (
	"encoding/json"
	"testing"

	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest/assert"
)

func TestCoinAdd(t *testing.T) {
	cases := map[string]struct {
		a, b    Coin
		want    Coin
		wantErr *errors.Error
	}{
		"same ticker": {
			a:    NewCoin(100, "ETH"),
			b:    NewCoin(23, "ETH"),
			want: NewCoin(123, "ETH"),
		},
		"negative result": {
			a:    NewCoin(10, "ETH"),
			b:    NewCoin(-23, "ETH"),
			want: NewCoin(-13, "ETH"),
		},
		"zero without ticker is ignored": {
			a:    Coin{},
			b:    NewCoin(7, "USDC"),
			want: NewCoin(7, "USDC"),
		},
		"different tickers": {
			a:       NewCoin(1, "ETH"),
			b:       NewCoin(1, "USDC"),
			wantErr: errors.ErrCurrency,
		},
		"overflow": {
			a:       NewCoin(MaxInt, "ETH"),
			b:       NewCoin(1, "ETH"),
			wantErr: errors.ErrOverflow,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := tc.a.Add(tc.b)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestCoinValidate(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		wantErr *errors.Error
	}{
		"valid":            {coin: NewCoin(5, "WETH")},
		"negative allowed": {coin: NewCoin(-5, "WETH")},
		"lowercase ticker": {coin: NewCoin(5, "eth"), wantErr: errors.ErrCurrency},
		"missing ticker":   {coin: NewCoin(5, ""), wantErr: errors.ErrCurrency},
		"too large":        {coin: NewCoin(MaxInt+1, "ETH"), wantErr: errors.ErrOverflow},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, tc.coin.Validate())
		})
	}
}

func TestCoinCompare(t *testing.T) {
	a := NewCoin(10, "ETH")
	b := NewCoin(20, "ETH")
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, true, b.IsGTE(a))
	assert.Equal(t, false, a.IsGTE(b))
	assert.Equal(t, false, NewCoin(30, "USDC").IsGTE(a))
}

func TestParseHumanFormat(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Coin
		wantErr *errors.Error
	}{
		"simple":       {raw: "100 ETH", want: NewCoin(100, "ETH")},
		"no space":     {raw: "7USDC", want: NewCoin(7, "USDC")},
		"negative":     {raw: "-3 ETH", want: NewCoin(-3, "ETH")},
		"fraction":     {raw: "1.5 ETH", wantErr: errors.ErrInput},
		"no ticker":    {raw: "100", wantErr: errors.ErrInput},
		"huge":         {raw: "99999999999999999999 ETH", wantErr: errors.ErrOverflow},
		"lower ticker": {raw: "1 eth", wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseHumanFormat(tc.raw)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got)
				assert.Equal(t, tc.raw != "7USDC", got.String() == tc.raw)
			}
		})
	}
}

func TestCoinJSON(t *testing.T) {
	var human Coin
	assert.Nil(t, json.Unmarshal([]byte(`"42 ETH"`), &human))
	assert.Equal(t, NewCoin(42, "ETH"), human)

	var obj Coin
	assert.Nil(t, json.Unmarshal([]byte(`{"ticker": "ETH", "amount": 42}`), &obj))
	assert.Equal(t, human, obj)
}

func TestCoinSerialization(t *testing.T) {
	c := NewCoin(123456, "USDC")
	raw, err := c.Marshal()
	assert.Nil(t, err)
	var got Coin
	assert.Nil(t, got.Unmarshal(raw))
	assert.Equal(t, c, got)
}
