package gate

import (
	"time"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
)

const (
	MaxGateIdLen      = 32
	MaxTitleLen       = 140
	MaxDescriptionLen = 1024
	MaxMediaLen       = 1024
)

// Metadata is the display metadata shared by every token of a gate.
// Timestamps are unix milliseconds.
type Metadata struct {
	Title         string  `json:"title" bson:"title"`
	Description   string  `json:"description" bson:"description"`
	Media         *string `json:"media,omitempty" bson:"media,omitempty"`
	MediaHash     *string `json:"mediaHash,omitempty" bson:"mediaHash,omitempty"`
	Copies        uint16  `json:"copies" bson:"copies"`
	IssuedAt      int64   `json:"issuedAt" bson:"issuedAt"`
	StartsAt      int64   `json:"startsAt" bson:"startsAt"`
	Reference     *string `json:"reference,omitempty" bson:"reference,omitempty"`
	ReferenceHash *string `json:"referenceHash,omitempty" bson:"referenceHash,omitempty"`
}

// Gate is a limited supply template tokens are minted from
type Gate struct {
	Id           domain.GateId     `json:"gateId" bson:"gateId"`
	Creator      domain.AccountId  `json:"creatorId" bson:"creatorId"`
	Supply       uint16            `json:"currentSupply" bson:"supply"`
	MintedTokens []domain.TokenId  `json:"mintedTokens" bson:"mintedTokens"`
	Royalty      fraction.Fraction `json:"royalty" bson:"royalty"`
	Metadata     Metadata          `json:"metadata" bson:"metadata"`
	CreatedAt    time.Time         `json:"createdAt" bson:"createdAt"`
}

// CreateParams are the inputs of a gate creation
type CreateParams struct {
	Creator       domain.AccountId  `json:"creatorId" validate:"required,accountid"`
	GateId        domain.GateId     `json:"gateId" validate:"required"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Supply        uint16            `json:"supply"`
	Royalty       fraction.Fraction `json:"royalty"`
	Media         *string           `json:"media"`
	MediaHash     *string           `json:"mediaHash"`
	Reference     *string           `json:"reference"`
	ReferenceHash *string           `json:"referenceHash"`
}

type Repo interface {
	// Insert returns domain.ErrGateAlreadyExists if the id is taken
	Insert(ctx ctx.Ctx, g *Gate) error
	FindOne(ctx ctx.Ctx, id domain.GateId) (*Gate, error)
	FindByCreator(ctx ctx.Ctx, creator domain.AccountId) ([]*Gate, error)
	Remove(ctx ctx.Ctx, id domain.GateId) error
	// Mint decrements the remaining supply and records the token id in one write.
	// It returns domain.ErrGateExhausted when nothing is left.
	Mint(ctx ctx.Ctx, id domain.GateId, tokenId domain.TokenId) error
	// Unmint gives back the slot Mint took for tokenId. It is a no-op when
	// tokenId is not among the minted tokens.
	Unmint(ctx ctx.Ctx, id domain.GateId, tokenId domain.TokenId) error
}

type Usecase interface {
	Create(ctx ctx.Ctx, params CreateParams) (*Gate, error)
	Delete(ctx ctx.Ctx, id domain.GateId) error
	Purchase(ctx ctx.Ctx, id domain.GateId) (domain.TokenId, error)

	Get(ctx ctx.Ctx, id domain.GateId) (*Gate, error)
	FindByCreator(ctx ctx.Ctx, creator domain.AccountId) ([]*Gate, error)
}
