package listing

import (
	"time"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/token"
)

type PurchaseState string

const (
	// PurchasePending means the listing is gone and the registry has not answered yet
	PurchasePending PurchaseState = "pending"
	// PurchaseSettled means the payout was distributed
	PurchaseSettled PurchaseState = "settled"
	// PurchaseFailed is terminal, the listing is not restored
	PurchaseFailed PurchaseState = "failed"
)

type Purchase struct {
	Id         string           `json:"id" bson:"purchaseId"`
	Key        Key              `json:"key" bson:"key"`
	Buyer      domain.AccountId `json:"buyerId" bson:"buyerId"`
	Seller     domain.AccountId `json:"sellerId" bson:"sellerId"`
	ApprovalId uint64           `json:"approvalId" bson:"approvalId"`
	Deposit    domain.Balance   `json:"deposit" bson:"deposit"`
	State      PurchaseState    `json:"state" bson:"state"`
	Payout     token.Payout     `json:"payout,omitempty" bson:"payout,omitempty"`
	Reason     string           `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt  time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt" bson:"updatedAt"`
}

type PurchaseRepo interface {
	Insert(ctx ctx.Ctx, p *Purchase) error
	FindOne(ctx ctx.Ctx, id string) (*Purchase, error)
	Update(ctx ctx.Ctx, p *Purchase) error
}
