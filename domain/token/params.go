package token

import (
	"github.com/x-xyz/gatemarket/domain"
)

type BatchItem struct {
	TokenId  domain.TokenId  `json:"tokenId"`
	MinPrice *domain.Balance `json:"minPrice"`
}

type TransferParams struct {
	TokenId    domain.TokenId   `json:"tokenId"`
	Receiver   domain.AccountId `json:"receiverId" validate:"required,accountid"`
	ApprovalId *uint64          `json:"approvalId,omitempty"`
	Memo       *string          `json:"memo,omitempty"`
}
