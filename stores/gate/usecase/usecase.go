package usecase

import (
	"math/big"
	"time"
	"unicode/utf8"

	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/serial"
	"github.com/x-xyz/gatemarket/base/validator"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
	"github.com/x-xyz/gatemarket/domain/gate"
	"github.com/x-xyz/gatemarket/domain/token"
)

var timeNow = time.Now

type GateUseCaseCfg struct {
	Exec        serial.Executor
	GateRepo    gate.Repo
	TokenRepo   token.Repo
	Admins      []domain.AccountId
	PlatformFee fraction.Fraction
	// Tx runs the mint and the token insert as one unit. When nil a failed
	// insert hands the supply slot back instead.
	Tx func(c ctx.Ctx, fn func(ctx.Ctx) error) error
}

type impl struct {
	exec        serial.Executor
	gate        gate.Repo
	token       token.Repo
	admins      map[domain.AccountId]bool
	platformFee fraction.Fraction
	tx          func(c ctx.Ctx, fn func(ctx.Ctx) error) error
}

func New(cfg *GateUseCaseCfg) gate.Usecase {
	admins := map[domain.AccountId]bool{}
	for _, a := range cfg.Admins {
		admins[a] = true
	}
	return &impl{
		exec:        cfg.Exec,
		gate:        cfg.GateRepo,
		token:       cfg.TokenRepo,
		admins:      admins,
		platformFee: cfg.PlatformFee,
		tx:          cfg.Tx,
	}
}

// belowOne reports whether a + b < 1
func belowOne(a, b fraction.Fraction) bool {
	num := new(big.Int).Mul(big.NewInt(int64(a.Num)), big.NewInt(int64(b.Den)))
	num.Add(num, new(big.Int).Mul(big.NewInt(int64(b.Num)), big.NewInt(int64(a.Den))))
	den := new(big.Int).Mul(big.NewInt(int64(a.Den)), big.NewInt(int64(b.Den)))
	return num.Cmp(den) < 0
}

func tooLong(s *string, max int) bool {
	return s != nil && utf8.RuneCountInString(*s) > max
}

func (im *impl) validate(c ctx.Ctx, p gate.CreateParams) error {
	if err := p.Royalty.Check(); err != nil {
		return xerrors.Errorf("royalty of gate %s: %w", p.GateId, err)
	}
	if !belowOne(p.Royalty, im.platformFee) {
		return xerrors.Errorf("royalty %s for gate %s with fee %s: %w", p.Royalty, p.GateId, im.platformFee, domain.ErrRoyaltyTooLarge)
	}

	if _, err := im.gate.FindOne(c, p.GateId); err == nil {
		return domain.ErrGateAlreadyExists
	} else if err != domain.ErrGateNotFound {
		return err
	}

	switch {
	case p.Supply == 0:
		return domain.ErrZeroSupply
	case utf8.RuneCountInString(p.Title) > gate.MaxTitleLen:
		return domain.ErrTitleTooLong
	case utf8.RuneCountInString(p.Description) > gate.MaxDescriptionLen:
		return domain.ErrDescriptionTooLong
	case tooLong(p.Media, gate.MaxMediaLen), tooLong(p.MediaHash, gate.MaxMediaLen),
		tooLong(p.Reference, gate.MaxMediaLen), tooLong(p.ReferenceHash, gate.MaxMediaLen):
		return domain.ErrMediaTooLong
	case !validator.IsValidGateId(p.GateId.String()):
		return domain.ErrInvalidGateId
	case !validator.IsValidAccountId(p.Creator.String()):
		return domain.ErrInvalidAccountId
	}

	if !im.admins[domain.AccountId(ctx.Caller(c))] {
		return domain.ErrAdminOnly
	}
	return nil
}

func (im *impl) Create(c ctx.Ctx, p gate.CreateParams) (*gate.Gate, error) {
	var res *gate.Gate
	err := im.exec.Do(c, func(c ctx.Ctx) error {
		if err := im.validate(c, p); err != nil {
			c.WithFields(log.Fields{"err": err, "gateId": p.GateId}).Warn("gate rejected")
			return err
		}

		now := timeNow()
		g := &gate.Gate{
			Id:           p.GateId,
			Creator:      p.Creator,
			Supply:       p.Supply,
			MintedTokens: []domain.TokenId{},
			Royalty:      p.Royalty,
			Metadata: gate.Metadata{
				Title:         p.Title,
				Description:   p.Description,
				Media:         p.Media,
				MediaHash:     p.MediaHash,
				Copies:        p.Supply,
				IssuedAt:      now.UnixMilli(),
				StartsAt:      now.UnixMilli(),
				Reference:     p.Reference,
				ReferenceHash: p.ReferenceHash,
			},
			CreatedAt: now,
		}
		if err := im.gate.Insert(c, g); err != nil {
			c.WithField("err", err).Error("gate.Insert failed")
			return err
		}
		res = g
		return nil
	})
	return res, err
}

func (im *impl) Delete(c ctx.Ctx, id domain.GateId) error {
	return im.exec.Do(c, func(c ctx.Ctx) error {
		g, err := im.gate.FindOne(c, id)
		if err != nil {
			return err
		}
		if len(g.MintedTokens) > 0 {
			return domain.ErrGateHasTokens
		}
		caller := domain.AccountId(ctx.Caller(c))
		if caller != g.Creator && !im.admins[caller] {
			return domain.ErrNotCreatorOrAdmin
		}
		if err := im.gate.Remove(c, id); err != nil {
			c.WithField("err", err).Error("gate.Remove failed")
			return err
		}
		return nil
	})
}

func (im *impl) Purchase(c ctx.Ctx, id domain.GateId) (domain.TokenId, error) {
	var tokenId domain.TokenId
	err := im.exec.Do(c, func(c ctx.Ctx) error {
		buyer := domain.AccountId(ctx.Caller(c))
		if buyer.IsEmpty() {
			return domain.ErrNoCaller
		}

		g, err := im.gate.FindOne(c, id)
		if err != nil {
			return err
		}
		if g.Supply == 0 {
			return domain.ErrGateExhausted
		}

		if tokenId, err = im.token.NextId(c); err != nil {
			c.WithField("err", err).Error("token.NextId failed")
			return err
		}
		now := timeNow()
		t := &token.Token{
			Id:         tokenId,
			GateId:     id,
			Owner:      buyer,
			CreatedAt:  now,
			ModifiedAt: now,
			Approvals:  []token.Approval{},
		}
		if err := im.mint(c, t); err != nil {
			return err
		}
		c.WithFields(log.Fields{"gateId": id, "tokenId": tokenId}).Info("token minted")
		return nil
	})
	return tokenId, err
}

// mint takes a supply slot of t.GateId and stores t
func (im *impl) mint(c ctx.Ctx, t *token.Token) error {
	if im.tx != nil {
		return im.tx(c, func(c ctx.Ctx) error { return im.write(c, t) })
	}
	return im.write(c, t)
}

func (im *impl) write(c ctx.Ctx, t *token.Token) error {
	if err := im.gate.Mint(c, t.GateId, t.Id); err != nil {
		c.WithField("err", err).Error("gate.Mint failed")
		return err
	}
	if err := im.token.Insert(c, t); err != nil {
		c.WithField("err", err).Error("token.Insert failed")
		if im.tx != nil {
			return err
		}
		if uerr := im.gate.Unmint(c, t.GateId, t.Id); uerr != nil {
			c.WithFields(log.Fields{"err": uerr, "gateId": t.GateId, "tokenId": t.Id}).Error("gate.Unmint failed")
		}
		return err
	}
	return nil
}

func (im *impl) Get(c ctx.Ctx, id domain.GateId) (*gate.Gate, error) {
	return im.gate.FindOne(c, id)
}

func (im *impl) FindByCreator(c ctx.Ctx, creator domain.AccountId) ([]*gate.Gate, error) {
	return im.gate.FindByCreator(c, creator)
}
