/*
Package coin describes the assets held by a vault. An asset is identified by a
ticker and its amount is a whole number of the smallest units.
*/
package coin

import (
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

// IsCC is the RegExp to ensure valid asset tickers
var IsCC = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,9}$`).MatchString

const (
	// MaxInt is the largest amount we accept
	MaxInt int64 = 1<<62 - 1
	// MinInt is the lowest amount we accept
	MinInt = -MaxInt
)

// Coin is an amount of a single asset.
type Coin struct {
	Ticker string `json:"ticker"`
	Amount int64  `json:"amount"`
}

// NewCoin creates a new coin object
func NewCoin(amount int64, ticker string) Coin {
	return Coin{
		Ticker: ticker,
		Amount: amount,
	}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(amount int64, ticker string) *Coin {
	c := NewCoin(amount, ticker)
	return &c
}

// Marshal serializes the coin.
func (c *Coin) Marshal() ([]byte, error) {
	return codec.Marshal(c)
}

// Unmarshal loads the coin from its binary form.
func (c *Coin) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, c)
}

// Add combines two coins of the same asset. Result out of the accepted range
// is an overflow.
func (c Coin) Add(o Coin) (Coin, error) {
	// If any of the coins represents no value and does not have a ticker
	// set then it has no influence on the addition result.
	if c.Ticker == "" && c.IsZero() {
		return o, nil
	}
	if o.Ticker == "" && o.IsZero() {
		return c, nil
	}
	if !c.SameType(o) {
		return Coin{}, errors.Wrapf(errors.ErrCurrency, "adding %s to %s", c.Ticker, o.Ticker)
	}
	sum := new(big.Int).Add(big.NewInt(c.Amount), big.NewInt(o.Amount))
	if !sum.IsInt64() || sum.Int64() > MaxInt || sum.Int64() < MinInt {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "%s + %s", c, o)
	}
	c.Amount = sum.Int64()
	return c, nil
}

// Negative returns the opposite coins value
//
//	c.Add(c.Negative()).IsZero() == true
func (c Coin) Negative() Coin {
	return Coin{Ticker: c.Ticker, Amount: -c.Amount}
}

// Subtract given amount.
func (c Coin) Subtract(amount Coin) (Coin, error) {
	return c.Add(amount.Negative())
}

// Compare will check values of two coins, without
// inspecting the currency code. It is up to the caller
// to determine if they want to check this.
//
// Returns 1 if c is larger, -1 if o is larger, 0 if equal
func (c Coin) Compare(o Coin) int {
	switch {
	case c.Amount > o.Amount:
		return 1
	case c.Amount < o.Amount:
		return -1
	default:
		return 0
	}
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Amount == o.Amount
}

// IsEmpty returns true on null or zero amount
func IsEmpty(c *Coin) bool {
	return c == nil || c.IsZero()
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.Amount == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.Amount > 0
}

// IsNonNegative returns true if the value is 0 or higher
func (c Coin) IsNonNegative() bool {
	return c.Amount >= 0
}

// IsGTE returns true if c is same type and at least
// as large as o.
func (c Coin) IsGTE(o Coin) bool {
	return c.SameType(o) && c.Amount >= o.Amount
}

// SameType returns true if they have the same currency
func (c Coin) SameType(o Coin) bool {
	return c.Ticker == o.Ticker
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cpy := *c
	return &cpy
}

// Validate ensures that the coin is in the valid range
// and valid currency code. It accepts negative values,
// so you may want to make other checks in your business
// logic
func (c Coin) Validate() error {
	if !IsCC(c.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", c.Ticker)
	}
	if c.Amount < MinInt || c.Amount > MaxInt {
		return errors.ErrOverflow
	}
	return nil
}

// UnmarshalJSON accepts both the human readable "<amount> <ticker>" string
// and the object form.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	// Because UnmarshalJSON method is provided, we can no longer use Coin
	// type for this.
	var coin struct {
		Ticker string `json:"ticker"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(raw, &coin); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	c.Ticker = coin.Ticker
	c.Amount = coin.Amount
	return nil
}

// String provides a human readable representation of the coin. For a valid
// coin the result can be parsed back.
func (c Coin) String() string {
	if c.Ticker == "" {
		return strconv.FormatInt(c.Amount, 10)
	}
	return fmt.Sprintf("%d %s", c.Amount, c.Ticker)
}

var humanCoinFormatRx = regexp.MustCompile(`^(\-?)\s*(\d+)\s*([A-Z][A-Z0-9]{2,9})$`)

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//
//	"<amount> <ticker>"
func ParseHumanFormat(h string) (Coin, error) {
	m := humanCoinFormatRx.FindStringSubmatch(h)
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	amount, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || amount > MaxInt {
		return Coin{}, errors.Wrapf(errors.ErrOverflow, "invalid amount %q", m[2])
	}
	if m[1] == "-" {
		amount = -amount
	}
	return Coin{Ticker: m[3], Amount: amount}, nil
}

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
