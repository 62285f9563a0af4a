// Package fraction implements ratios no greater than one, used for royalties and fees.
package fraction

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/domain"
)

var (
	ErrZeroDenominator        = domain.NewError(domain.ErrBadParamInput, "denominator must be a positive number")
	ErrFractionGreaterThanOne = domain.NewError(domain.ErrBadParamInput, "the fraction must be less or equal to 1")
)

// Fraction is num/den
type Fraction struct {
	Num uint32 `json:"num" bson:"num"`
	Den uint32 `json:"den" bson:"den"`
}

func New(num, den uint32) Fraction {
	return Fraction{Num: num, Den: den}
}

// Check requires a positive denominator and a value not above one
func (f Fraction) Check() error {
	if f.Den == 0 {
		return ErrZeroDenominator
	}
	if f.Num > f.Den {
		return ErrFractionGreaterThanOne
	}
	return nil
}

// Mult returns floor(num * amount / den).
// The caller is expected to have called Check.
func (f Fraction) Mult(amount domain.Balance) domain.Balance {
	if f.Den == 0 {
		return decimal.Zero
	}
	n := new(big.Int).Mul(amount.BigInt(), big.NewInt(int64(f.Num)))
	n.Quo(n, big.NewInt(int64(f.Den)))
	return decimal.NewFromBigInt(n, 0)
}

// Cmp compares values: -1 if f < o, 0 if equal, +1 if f > o
func (f Fraction) Cmp(o Fraction) int {
	l := new(big.Int).Mul(big.NewInt(int64(f.Num)), big.NewInt(int64(o.Den)))
	r := new(big.Int).Mul(big.NewInt(int64(o.Num)), big.NewInt(int64(f.Den)))
	return l.Cmp(r)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Parse reads "num/den"
func Parse(s string) (Fraction, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Fraction{}, xerrors.Errorf("fraction %q: %w", s, domain.ErrBadParamInput)
	}
	num, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Fraction{}, xerrors.Errorf("fraction %q: %w", s, domain.ErrBadParamInput)
	}
	den, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Fraction{}, xerrors.Errorf("fraction %q: %w", s, domain.ErrBadParamInput)
	}
	f := New(uint32(num), uint32(den))
	if err := f.Check(); err != nil {
		return Fraction{}, err
	}
	return f, nil
}
