package listing

import (
	"fmt"
	"time"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/remote"
)

// Key identifies a listed token across registries
type Key struct {
	Registry domain.AccountId `json:"registryId" bson:"registryId"`
	TokenId  domain.TokenId   `json:"tokenId" bson:"tokenId"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Registry, k.TokenId)
}

// Listing mirrors an approval held by the marketplace
type Listing struct {
	Key        `bson:",inline"`
	Owner      domain.AccountId  `json:"ownerId" bson:"ownerId"`
	ApprovalId uint64            `json:"approvalId" bson:"approvalId"`
	MinPrice   domain.Balance    `json:"minPrice" bson:"minPrice"`
	GateId     *domain.GateId    `json:"gateId,omitempty" bson:"gateId,omitempty"`
	Creator    *domain.AccountId `json:"creatorId,omitempty" bson:"creatorId,omitempty"`
	ListedAt   time.Time         `json:"listedAt" bson:"listedAt"`
}

// Repo keeps the primary table and the by-registry, by-owner, by-creator and by-gate indexes in step
type Repo interface {
	// Insert is an upsert. An existing record under the same key is unindexed first.
	Insert(ctx ctx.Ctx, l *Listing) error
	// Remove deletes the record and all its index entries. A missing index entry
	// fails the whole removal with domain.ErrIndexCorrupted.
	Remove(ctx ctx.Ctx, key Key) (*Listing, error)
	Get(ctx ctx.Ctx, key Key) (*Listing, error)

	All(ctx ctx.Ctx) ([]*Listing, error)
	ByRegistry(ctx ctx.Ctx, registry domain.AccountId) ([]*Listing, error)
	ByOwner(ctx ctx.Ctx, owner domain.AccountId) ([]*Listing, error)
	ByCreator(ctx ctx.Ctx, creator domain.AccountId) ([]*Listing, error)
	ByGate(ctx ctx.Ctx, gateId domain.GateId) ([]*Listing, error)
}

type Usecase interface {
	remote.Market

	// Buy settles asynchronously, the returned purchase is pending
	Buy(ctx ctx.Ctx, key Key, deposit domain.Balance) (*Purchase, error)
	GetPurchase(ctx ctx.Ctx, id string) (*Purchase, error)

	All(ctx ctx.Ctx) ([]*Listing, error)
	ByOwner(ctx ctx.Ctx, owner domain.AccountId) ([]*Listing, error)
	ByCreator(ctx ctx.Ctx, creator domain.AccountId) ([]*Listing, error)
	ByGate(ctx ctx.Ctx, gateId domain.GateId) ([]*Listing, error)
}
