package usecase

import (
	"strings"
	"time"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
	"github.com/x-xyz/gatemarket/base/serial"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
	"github.com/x-xyz/gatemarket/domain/gate"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/xcall"
)

var timeNow = time.Now

type TokenUseCaseCfg struct {
	Exec        serial.Executor
	TokenRepo   token.Repo
	GateRepo    gate.Repo
	Directory   remote.Directory
	Dispatcher  xcall.Dispatcher
	PlatformFee fraction.Fraction
	FeeAccount  domain.AccountId
	Metadata    token.ContractMetadata
}

type impl struct {
	exec        serial.Executor
	token       token.Repo
	gate        gate.Repo
	dir         remote.Directory
	xcall       xcall.Dispatcher
	platformFee fraction.Fraction
	feeAccount  domain.AccountId
	metadata    token.ContractMetadata
	met         metrics.Service
}

func New(cfg *TokenUseCaseCfg) token.Usecase {
	return &impl{
		exec:        cfg.Exec,
		token:       cfg.TokenRepo,
		gate:        cfg.GateRepo,
		dir:         cfg.Directory,
		xcall:       cfg.Dispatcher,
		platformFee: cfg.PlatformFee,
		feeAccount:  cfg.FeeAccount,
		metadata:    cfg.Metadata,
		met:         metrics.New("token"),
	}
}

func (im *impl) withMetadata(c ctx.Ctx, t *token.Token) (*token.TokenWithMetadata, error) {
	g, err := im.gate.FindOne(c, t.GateId)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "tokenId": t.Id, "gateId": t.GateId}).Error("gate.FindOne failed")
		return nil, err
	}
	return &token.TokenWithMetadata{Token: *t, Metadata: g.Metadata}, nil
}

func (im *impl) withMetadataAll(c ctx.Ctx, ts []*token.Token) ([]*token.TokenWithMetadata, error) {
	gates := map[domain.GateId]*gate.Gate{}
	res := make([]*token.TokenWithMetadata, 0, len(ts))
	for _, t := range ts {
		g, ok := gates[t.GateId]
		if !ok {
			var err error
			if g, err = im.gate.FindOne(c, t.GateId); err != nil {
				c.WithFields(log.Fields{"err": err, "gateId": t.GateId}).Error("gate.FindOne failed")
				return nil, err
			}
			gates[t.GateId] = g
		}
		res = append(res, &token.TokenWithMetadata{Token: *t, Metadata: g.Metadata})
	}
	return res, nil
}

func (im *impl) Get(c ctx.Ctx, id domain.TokenId) (*token.TokenWithMetadata, error) {
	t, err := im.token.FindOne(c, id)
	if err != nil {
		return nil, err
	}
	return im.withMetadata(c, t)
}

func (im *impl) Tokens(c ctx.Ctx, offset, limit int) ([]*token.TokenWithMetadata, error) {
	ts, err := im.token.FindAll(c, token.WithPagination(offset, limit))
	if err != nil {
		return nil, err
	}
	return im.withMetadataAll(c, ts)
}

func (im *impl) TokensForOwner(c ctx.Ctx, owner domain.AccountId, offset, limit int) ([]*token.TokenWithMetadata, error) {
	ts, err := im.token.FindAll(c, token.WithOwner(owner), token.WithPagination(offset, limit))
	if err != nil {
		return nil, err
	}
	return im.withMetadataAll(c, ts)
}

func (im *impl) TotalSupply(c ctx.Ctx) (int, error) {
	return im.token.Count(c)
}

func (im *impl) SupplyForOwner(c ctx.Ctx, owner domain.AccountId) (int, error) {
	return im.token.Count(c, token.WithOwner(owner))
}

// TokenURI is nil when no base uri is configured or the token does not exist
func (im *impl) TokenURI(c ctx.Ctx, id domain.TokenId) (*string, error) {
	if im.metadata.BaseUri == nil {
		return nil, nil
	}
	t, err := im.token.FindOne(c, id)
	if err == domain.ErrTokenNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	base := *im.metadata.BaseUri
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	uri := base + t.GateId.String()
	return &uri, nil
}

func (im *impl) ContractMetadata(ctx.Ctx) token.ContractMetadata {
	return im.metadata
}
