// Package remote defines the calls the registry and the marketplace make to each other.
// The caller identity travels with the context, see ctx.Caller.
package remote

import (
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
)

// ListingMsg carries what the marketplace needs to list a token
type ListingMsg struct {
	MinPrice *domain.Balance   `json:"minPrice"`
	GateId   *domain.GateId    `json:"gateId,omitempty"`
	Creator  *domain.AccountId `json:"creatorId,omitempty"`
}

type ApproveMsg struct {
	TokenId    domain.TokenId   `json:"tokenId"`
	Owner      domain.AccountId `json:"ownerId"`
	ApprovalId uint64           `json:"approvalId"`
	Msg        ListingMsg       `json:"msg"`
}

type BatchApproveItem struct {
	TokenId    domain.TokenId `json:"tokenId"`
	ApprovalId uint64         `json:"approvalId"`
	Msg        ListingMsg     `json:"msg"`
}

type BatchApproveMsg struct {
	Owner  domain.AccountId   `json:"ownerId"`
	Tokens []BatchApproveItem `json:"tokens"`
}

type RevokeMsg struct {
	TokenId domain.TokenId `json:"tokenId"`
}

type TransferPayoutReq struct {
	token.TransferParams
	Amount *domain.Balance `json:"amount,omitempty"`
}

// Market receives approval notifications from a registry
type Market interface {
	OnApprove(ctx ctx.Ctx, msg ApproveMsg) error
	OnBatchApprove(ctx ctx.Ctx, msg BatchApproveMsg) error
	OnRevoke(ctx ctx.Ctx, msg RevokeMsg) error
}

// Registry settles sales for a marketplace
type Registry interface {
	TransferWithPayout(ctx ctx.Ctx, req TransferPayoutReq) (token.Payout, error)
}

// Directory resolves an account to its service endpoint.
// Unknown accounts yield domain.ErrUnknownAccount.
type Directory interface {
	Market(account domain.AccountId) (Market, error)
	Registry(account domain.AccountId) (Registry, error)
}
