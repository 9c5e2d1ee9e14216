package coin

import (
	"sort"

	"github.com/keyward/keyward/errors"
)

// Coins represents a set of coins. Most operations on the coin set require
// normalized form: sorted by ticker, no duplicates and no zero values.
type Coins []*Coin

// CombineCoins creates a Coins containing all given coins.
// It will sort them and combine duplicates to produce
// a normalized form regardless of input.
func CombineCoins(cs ...Coin) (Coins, error) {
	var (
		coins Coins
		err   error
	)
	for _, c := range cs {
		coins, err = coins.Add(c)
		if err != nil {
			return nil, err
		}
	}
	if err := coins.Validate(); err != nil {
		return nil, err
	}
	return coins, nil
}

// Clone returns a copy that can be safely modified
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return res
}

// Add returns a copy of the set increased by c. The receiver is not
// modified.
func (cs Coins) Add(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs.Clone(), nil
	}

	res := cs.Clone()
	has, i := res.findCoin(c.Ticker)
	if has != nil {
		sum, err := has.Add(c)
		if err != nil {
			return nil, err
		}
		// if the result is zero, remove this currency
		if sum.IsZero() {
			return append(res[:i], res[i+1:]...), nil
		}
		res[i] = &sum
		return res, nil
	}

	res = append(res, nil)
	copy(res[i+1:], res[i:])
	res[i] = &c
	return res, nil
}

// Subtract returns a copy of the set decreased by c. The result may hold
// negative amounts.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	return cs.Add(c.Negative())
}

// Combine will create a new Coins adding all the coins
// of s and o together.
func (cs Coins) Combine(o Coins) (Coins, error) {
	var err error
	res := cs.Clone()
	for _, c := range o {
		res, err = res.Add(*c)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Contains returns true if there is at least that much
// coin in the Coins. If it returns true, then:
//
//	s.Subtract(c).IsNonNegative() == true
func (cs Coins) Contains(c Coin) bool {
	has, _ := cs.findCoin(c.Ticker)
	if has == nil {
		return c.Amount <= 0
	}
	return has.IsGTE(c)
}

// Balance returns the amount held for the given ticker.
func (cs Coins) Balance(ticker string) Coin {
	has, _ := cs.findCoin(ticker)
	if has == nil {
		return NewCoin(0, ticker)
	}
	return *has
}

// findCoin returns a coin and index that have this
// currency code.
//
// If there was a match, then result is non-nil, and the
// index is where it was. If there was no match, then
// result is nil, and index is where it should be
// (which may be between 0 and len(cs)).
func (cs Coins) findCoin(ticker string) (*Coin, int) {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].Ticker >= ticker })
	if i < len(cs) && cs[i].Ticker == ticker {
		return cs[i], i
	}
	return nil, i
}

// IsEmpty returns true if there are no coins
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// IsPositive returns true there is at least one coin
// and all coins are positive
func (cs Coins) IsPositive() bool {
	if cs.IsEmpty() {
		return false
	}
	for _, c := range cs {
		if !c.IsPositive() {
			return false
		}
	}
	return true
}

// IsNonNegative returns true if all coins are positive,
// but also accepts an empty Coins
func (cs Coins) IsNonNegative() bool {
	for _, c := range cs {
		if !c.IsNonNegative() {
			return false
		}
	}
	return true
}

// Equals returns true if all coins are equal.
func (cs Coins) Equals(o Coins) bool {
	if len(cs) != len(o) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*o[i]) {
			return false
		}
	}
	return true
}

// Validate requires that all coins are in alphabetical
// order and that each coin is valid in it's own right
//
// Zero amounts should not be present
func (cs Coins) Validate() error {
	var err error
	last := ""
	for _, c := range cs {
		if c == nil {
			err = errors.Append(err, errors.Wrap(errors.ErrEmpty, "nil coin"))
			continue
		}
		err = errors.Append(err, errors.Wrap(c.Validate(), "coin"))
		if c.IsZero() {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "zero coins"))
		}
		if c.Ticker <= last && last != "" {
			err = errors.Append(err, errors.Wrap(errors.ErrState, "not sorted"))
		}
		last = c.Ticker
	}
	return err
}
