package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/xerrors"
)

type AccountId string

func (a AccountId) String() string {
	return string(a)
}

func (a AccountId) IsEmpty() bool {
	return len(a) == 0
}

type GateId string

func (g GateId) String() string {
	return string(g)
}

type TokenId uint64

func (i TokenId) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

func ParseTokenId(s string) (TokenId, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("token id %q: %w", s, ErrBadParamInput)
	}
	return TokenId(id), nil
}

// Balance is an amount of the smallest currency unit, always integral and non negative
type Balance = decimal.Decimal

// ParseBalance parses a decimal string into a Balance
func ParseBalance(s string) (Balance, error) {
	b, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, xerrors.Errorf("balance %q: %w", s, ErrInvalidAmount)
	}
	if err := CheckBalance(b); err != nil {
		return decimal.Zero, err
	}
	return b, nil
}

// CheckBalance rejects negative and fractional amounts
func CheckBalance(b Balance) error {
	if b.IsNegative() || !b.Equal(b.Truncate(0)) {
		return xerrors.Errorf("balance %s: %w", b.String(), ErrInvalidAmount)
	}
	return nil
}
