package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
}

func (s *ValidatorTestSuite) TestIsValidGateId() {
	tests := []struct {
		desc    string
		id      string
		isValid bool
	}{
		{desc: "empty", id: "", isValid: false},
		{desc: "single char", id: "G", isValid: true},
		{desc: "charset", id: "Gate_01-a", isValid: true},
		{desc: "max length", id: strings.Repeat("a", 32), isValid: true},
		{desc: "too long", id: strings.Repeat("a", 33), isValid: false},
		{desc: "dot", id: "gate.1", isValid: false},
		{desc: "space", id: "gate 1", isValid: false},
		{desc: "unicode", id: "gatë", isValid: false},
	}
	for _, t := range tests {
		s.Equal(t.isValid, IsValidGateId(t.id), t.desc)
	}
}

func (s *ValidatorTestSuite) TestIsValidAccountId() {
	tests := []struct {
		desc    string
		id      string
		isValid bool
	}{
		{desc: "too short", id: "a", isValid: false},
		{desc: "simple", id: "alice", isValid: true},
		{desc: "sub account", id: "market.alice.near", isValid: true},
		{desc: "separators", id: "fee_account-1.near", isValid: true},
		{desc: "upper case", id: "Alice.near", isValid: false},
		{desc: "trailing dot", id: "alice.", isValid: false},
		{desc: "double separator", id: "alice--bob", isValid: false},
		{desc: "too long", id: strings.Repeat("a", 65), isValid: false},
	}
	for _, t := range tests {
		s.Equal(t.isValid, IsValidAccountId(t.id), t.desc)
	}
}

func (s *ValidatorTestSuite) TestCustomTags() {
	type payload struct {
		GateId  string `validate:"gateid"`
		Account string `validate:"accountid"`
	}
	v := NewCustomValidator(New())

	s.NoError(v.Validate(&payload{GateId: "G1", Account: "bob.near"}))
	s.Error(v.Validate(&payload{GateId: "G 1", Account: "bob.near"}))
	s.Error(v.Validate(&payload{GateId: "G1", Account: "BOB"}))
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
