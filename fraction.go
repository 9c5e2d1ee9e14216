package keyward

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/keyward/keyward/errors"
)

// Fraction represents a rational number. It is used for vote weights and
// approval tallies.
type Fraction struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// One is the unit weight.
var One = Fraction{Numerator: 1, Denominator: 1}

// String returns a human readable fraction representation.
func (f *Fraction) String() string {
	if f == nil {
		return "nil"
	}
	if f.Numerator == 0 {
		return "0"
	}
	if f.Denominator == 1 {
		return fmt.Sprint(f.Numerator)
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

func (f *Fraction) UnmarshalJSON(raw []byte) error {
	// Prioritize human readable format.
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		frac, err := ParseFractionString(human)
		if err != nil {
			return errors.Wrap(err, "fraction string")
		}
		*f = *frac
		return nil
	}

	var frac struct {
		Numerator   uint32
		Denominator uint32
	}
	if err := json.Unmarshal(raw, &frac); err != nil {
		return err
	}
	f.Numerator = frac.Numerator
	f.Denominator = frac.Denominator
	return nil
}

// Validate returns an error if this fraction represents an invalid value.
func (f Fraction) Validate() error {
	if f.Denominator == 0 && f.Numerator != 0 {
		return errors.Wrap(errors.ErrState, "zero division")
	}
	return nil
}

// IsZero returns true if this fraction represents zero.
func (f Fraction) IsZero() bool {
	return f.Numerator == 0
}

// Normalize returns a new fraction instance that has its numerator and
// denominator reduced to the smallest possible representation.
func (f Fraction) Normalize() Fraction {
	if f.Numerator == 0 {
		return Fraction{Numerator: 0, Denominator: 1}
	}
	div := uintGcd(f.Numerator, f.Denominator)
	return Fraction{
		Numerator:   f.Numerator / div,
		Denominator: f.Denominator / div,
	}
}

// Rat returns the math/big representation of this fraction. A zero value
// fraction is zero.
func (f Fraction) Rat() *big.Rat {
	if f.Denominator == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(
		new(big.Int).SetUint64(uint64(f.Numerator)),
		new(big.Int).SetUint64(uint64(f.Denominator)),
	)
}

// Add returns the normalized sum of both fractions. ErrOverflow is returned
// when the result cannot be represented.
func (f Fraction) Add(o Fraction) (Fraction, error) {
	if err := f.Validate(); err != nil {
		return Fraction{}, err
	}
	if err := o.Validate(); err != nil {
		return Fraction{}, err
	}
	return FractionFromRat(new(big.Rat).Add(f.Rat(), o.Rat()))
}

// GTE returns true if this fraction is greater or equal to given integer.
func (f Fraction) GTE(n uint32) bool {
	want := new(big.Rat).SetInt64(int64(n))
	return f.Rat().Cmp(want) >= 0
}

// FractionFromRat converts a non negative rational number into a
// Fraction.
func FractionFromRat(r *big.Rat) (Fraction, error) {
	if r.Sign() < 0 {
		return Fraction{}, errors.Wrap(errors.ErrInput, "negative fraction")
	}
	num, den := r.Num(), r.Denom()
	if !num.IsUint64() || !den.IsUint64() || num.Uint64() > 1<<32-1 || den.Uint64() > 1<<32-1 {
		return Fraction{}, errors.Wrapf(errors.ErrOverflow, "fraction %s", r.String())
	}
	return Fraction{Numerator: uint32(num.Uint64()), Denominator: uint32(den.Uint64())}, nil
}

func uintGcd(a, b uint32) uint32 {
	for b != 0 {
		t := b
		b = a % b
		a = t
	}
	return a
}

// ParseFractionString returns a fraction value that is represented by given
// string. This function fails if given string does not represent a fraction
// value.
// This fuction does not fail if representation format is correct but the value
// is invalid (i.e. value of "2/0").
func ParseFractionString(raw string) (*Fraction, error) {
	chunks := strings.SplitN(raw, "/", 2)
	n, err := strconv.ParseUint(chunks[0], 10, 32)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "numerator")
	}
	if len(chunks) == 1 {
		return &Fraction{Numerator: uint32(n), Denominator: 1}, nil
	}
	d, err := strconv.ParseUint(chunks[1], 10, 32)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "denominator")
	}
	return &Fraction{Numerator: uint32(n), Denominator: uint32(d)}, nil
}
