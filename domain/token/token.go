package token

import (
	"time"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/gate"
)

// Approval lets Spender transfer the token on the owner's behalf
type Approval struct {
	Spender    domain.AccountId `json:"spender" bson:"spender"`
	ApprovalId uint64           `json:"approvalId" bson:"approvalId"`
	MinPrice   domain.Balance   `json:"minPrice" bson:"minPrice"`
}

type Token struct {
	Id              domain.TokenId   `json:"tokenId" bson:"tokenId"`
	GateId          domain.GateId    `json:"gateId" bson:"gateId"`
	Owner           domain.AccountId `json:"ownerId" bson:"ownerId"`
	CreatedAt       time.Time        `json:"createdAt" bson:"createdAt"`
	ModifiedAt      time.Time        `json:"modifiedAt" bson:"modifiedAt"`
	Approvals       []Approval       `json:"approvals" bson:"approvals"`
	ApprovalCounter uint64           `json:"approvalCounter" bson:"approvalCounter"`
}

// ApprovalOf returns the approval held by spender
func (t *Token) ApprovalOf(spender domain.AccountId) (Approval, bool) {
	for _, a := range t.Approvals {
		if a.Spender == spender {
			return a, true
		}
	}
	return Approval{}, false
}

// Approve appends a new approval with the next approval id
func (t *Token) Approve(spender domain.AccountId, minPrice domain.Balance) Approval {
	t.ApprovalCounter++
	a := Approval{Spender: spender, ApprovalId: t.ApprovalCounter, MinPrice: minPrice}
	t.Approvals = append(t.Approvals, a)
	return a
}

// Revoke drops the approval of spender, reports whether one existed
func (t *Token) Revoke(spender domain.AccountId) bool {
	for i, a := range t.Approvals {
		if a.Spender == spender {
			t.Approvals = append(t.Approvals[:i], t.Approvals[i+1:]...)
			return true
		}
	}
	return false
}

// TokenWithMetadata is a token joined with the metadata of its gate
type TokenWithMetadata struct {
	Token    `bson:",inline"`
	Metadata gate.Metadata `json:"metadata"`
}

// ContractMetadata describes the registry
type ContractMetadata struct {
	Spec          string  `json:"spec" mapstructure:"spec"`
	Name          string  `json:"name" mapstructure:"name"`
	Symbol        string  `json:"symbol" mapstructure:"symbol"`
	Icon          *string `json:"icon,omitempty" mapstructure:"icon"`
	BaseUri       *string `json:"baseUri,omitempty" mapstructure:"baseUri"`
	Reference     *string `json:"reference,omitempty" mapstructure:"reference"`
	ReferenceHash *string `json:"referenceHash,omitempty" mapstructure:"referenceHash"`
}

type FindAllOptions struct {
	Owner  *domain.AccountId
	Offset *int
	Limit  *int
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithOwner(owner domain.AccountId) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Owner = &owner
		return nil
	}
}

func WithPagination(offset, limit int) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		if offset < 0 || limit < 0 {
			return domain.ErrBadParamInput
		}
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

type Repo interface {
	// NextId allocates the next token id from a strictly increasing counter starting at 0
	NextId(ctx ctx.Ctx) (domain.TokenId, error)
	Insert(ctx ctx.Ctx, t *Token) error
	FindOne(ctx ctx.Ctx, id domain.TokenId) (*Token, error)
	// FindAll returns tokens ordered by id
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Token, error)
	Count(ctx ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	// Update replaces the stored token in one write
	Update(ctx ctx.Ctx, t *Token) error
}

type Usecase interface {
	Approve(ctx ctx.Ctx, id domain.TokenId, spender domain.AccountId, minPrice *domain.Balance) error
	Revoke(ctx ctx.Ctx, id domain.TokenId, spender domain.AccountId) error
	RevokeAll(ctx ctx.Ctx, id domain.TokenId) error
	// BatchApprove returns *BatchError when any item failed, successful items stay approved
	BatchApprove(ctx ctx.Ctx, items []BatchItem, spender domain.AccountId) error
	Transfer(ctx ctx.Ctx, params TransferParams) error
	Payout(ctx ctx.Ctx, id domain.TokenId, amount domain.Balance) (Payout, error)
	// TransferWithPayout returns a nil payout when no amount is given
	TransferWithPayout(ctx ctx.Ctx, params TransferParams, amount *domain.Balance) (Payout, error)

	Get(ctx ctx.Ctx, id domain.TokenId) (*TokenWithMetadata, error)
	Tokens(ctx ctx.Ctx, offset, limit int) ([]*TokenWithMetadata, error)
	TokensForOwner(ctx ctx.Ctx, owner domain.AccountId, offset, limit int) ([]*TokenWithMetadata, error)
	TotalSupply(ctx ctx.Ctx) (int, error)
	SupplyForOwner(ctx ctx.Ctx, owner domain.AccountId) (int, error)
	TokenURI(ctx ctx.Ctx, id domain.TokenId) (*string, error)
	ContractMetadata(ctx ctx.Ctx) ContractMetadata
}
