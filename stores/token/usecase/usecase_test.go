package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/ptr"
	"github.com/x-xyz/gatemarket/base/serial"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
	"github.com/x-xyz/gatemarket/domain/gate"
	"github.com/x-xyz/gatemarket/domain/remote"
	"github.com/x-xyz/gatemarket/domain/token"
	remoteService "github.com/x-xyz/gatemarket/service/remote"
	"github.com/x-xyz/gatemarket/service/xcall"
	gateRepo "github.com/x-xyz/gatemarket/stores/gate/repository"
	tokenRepo "github.com/x-xyz/gatemarket/stores/token/repository"
)

const (
	registry = domain.AccountId("registry.near")
	market   = domain.AccountId("market.near")
	other    = domain.AccountId("other-market.near")
	creator  = domain.AccountId("c.near")
	feeAcct  = domain.AccountId("fee.near")
	b1       = domain.AccountId("b1.near")
	b2       = domain.AccountId("b2.near")
)

type fakeMarket struct {
	lock    sync.Mutex
	callers []string
	approve []remote.ApproveMsg
	batch   []remote.BatchApproveMsg
	revoke  []remote.RevokeMsg
	fail    error
}

func (m *fakeMarket) OnApprove(c ctx.Ctx, msg remote.ApproveMsg) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.callers = append(m.callers, ctx.Caller(c))
	m.approve = append(m.approve, msg)
	return m.fail
}

func (m *fakeMarket) OnBatchApprove(c ctx.Ctx, msg remote.BatchApproveMsg) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.callers = append(m.callers, ctx.Caller(c))
	m.batch = append(m.batch, msg)
	return m.fail
}

func (m *fakeMarket) OnRevoke(c ctx.Ctx, msg remote.RevokeMsg) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.callers = append(m.callers, ctx.Caller(c))
	m.revoke = append(m.revoke, msg)
	return m.fail
}

type tokenSuite struct {
	suite.Suite
	gates  gate.Repo
	tokens token.Repo
	market *fakeMarket
	xcall  xcall.Dispatcher
	im     token.Usecase
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(tokenSuite))
}

func (s *tokenSuite) SetupTest() {
	s.gates = gateRepo.NewMemory()
	s.tokens = tokenRepo.NewMemory()
	s.market = &fakeMarket{}
	s.xcall = xcall.New(xcall.WithTimeout(time.Second))

	dir := remoteService.NewDirectory()
	dir.AddMarket(market, remoteService.NewLocalMarket(registry, s.market))

	s.im = New(&TokenUseCaseCfg{
		Exec:        serial.NewLocal(),
		TokenRepo:   s.tokens,
		GateRepo:    s.gates,
		Directory:   dir,
		Dispatcher:  s.xcall,
		PlatformFee: fraction.New(25, 1000),
		FeeAccount:  feeAcct,
		Metadata: token.ContractMetadata{
			Spec:    "gate-1.0.0",
			Name:    "Gates",
			Symbol:  "GATE",
			BaseUri: ptr.String("https://cdn.example.com/gates"),
		},
	})

	s.Require().NoError(s.gates.Insert(ctx.Background(), &gate.Gate{
		Id:           "G1",
		Creator:      creator,
		Supply:       10,
		MintedTokens: []domain.TokenId{},
		Royalty:      fraction.New(10, 100),
	}))
}

func (s *tokenSuite) TearDownTest() {
	s.xcall.Release()
}

func as(account domain.AccountId) ctx.Ctx {
	return ctx.WithCaller(ctx.Background(), account.String())
}

func price(v int64) *domain.Balance {
	p := decimal.NewFromInt(v)
	return &p
}

func (s *tokenSuite) mint(owner domain.AccountId) domain.TokenId {
	c := ctx.Background()
	id, err := s.tokens.NextId(c)
	s.Require().NoError(err)
	s.Require().NoError(s.tokens.Insert(c, &token.Token{Id: id, GateId: "G1", Owner: owner, Approvals: []token.Approval{}}))
	return id
}

func (s *tokenSuite) token(id domain.TokenId) *token.Token {
	t, err := s.tokens.FindOne(ctx.Background(), id)
	s.Require().NoError(err)
	return t
}

func (s *tokenSuite) TestApproveOnlyOnce() {
	t1 := s.mint(b1)

	s.Require().NoError(s.im.Approve(as(b1), t1, market, price(100)))
	err := s.im.Approve(as(b1), t1, other, price(1))
	s.Equal(domain.ErrTokenAlreadyApprove, err)
	err = s.im.Approve(as(b1), t1, market, price(1))
	s.Equal(domain.ErrTokenAlreadyApprove, err)

	got := s.token(t1)
	s.Require().Len(got.Approvals, 1)
	s.Equal(market, got.Approvals[0].Spender)
	s.Equal(uint64(1), got.Approvals[0].ApprovalId)
	s.True(got.Approvals[0].MinPrice.Equal(decimal.NewFromInt(100)))

	s.xcall.Wait()
	s.Require().Len(s.market.approve, 1)
	msg := s.market.approve[0]
	s.Equal(t1, msg.TokenId)
	s.Equal(b1, msg.Owner)
	s.Equal(uint64(1), msg.ApprovalId)
	s.Equal(domain.GateId("G1"), *msg.Msg.GateId)
	s.Equal(creator, *msg.Msg.Creator)
	s.True(msg.Msg.MinPrice.Equal(decimal.NewFromInt(100)))
	s.Equal([]string{registry.String()}, s.market.callers)
}

func (s *tokenSuite) TestApproveRejects() {
	t1 := s.mint(b1)

	s.Equal(domain.ErrMinPriceMissing, s.im.Approve(as(b1), t1, market, nil))
	s.True(errors.Is(s.im.Approve(as(b1), t1, market, price(-1)), domain.ErrInvalidAmount))
	s.Equal(domain.ErrTokenNotOwnedBy, s.im.Approve(as(b2), t1, market, price(1)))
	s.Equal(domain.ErrTokenNotFound, s.im.Approve(as(b1), 99, market, price(1)))
	s.Empty(s.token(t1).Approvals)
}

func (s *tokenSuite) TestApproveSurvivesNotificationFailure() {
	t1 := s.mint(b1)
	t2 := s.mint(b1)

	s.market.fail = errors.New("market down")
	s.NoError(s.im.Approve(as(b1), t1, market, price(5)))
	// no endpoint known for this spender
	s.NoError(s.im.Approve(as(b1), t2, "unknown.near", price(5)))
	s.xcall.Wait()

	s.Len(s.token(t1).Approvals, 1)
	s.Len(s.token(t2).Approvals, 1)
}

func (s *tokenSuite) TestRevoke() {
	t1 := s.mint(b1)
	s.Require().NoError(s.im.Approve(as(b1), t1, market, price(100)))

	s.Equal(domain.ErrTokenNotOwnedBy, s.im.Revoke(as(b2), t1, market))
	s.Equal(domain.ErrApprovalNotFound, s.im.Revoke(as(b1), t1, other))
	s.Require().NoError(s.im.Revoke(as(b1), t1, market))
	s.Empty(s.token(t1).Approvals)

	// a new approval gets a fresh id
	s.Require().NoError(s.im.Approve(as(b1), t1, market, price(100)))
	s.Equal(uint64(2), s.token(t1).Approvals[0].ApprovalId)

	s.Require().NoError(s.im.RevokeAll(as(b1), t1))
	s.Empty(s.token(t1).Approvals)

	s.xcall.Wait()
	s.Equal([]remote.RevokeMsg{{TokenId: t1}, {TokenId: t1}}, s.market.revoke)
}

func (s *tokenSuite) TestOnlyOwnerTransfersUnapprovedToken() {
	t1 := s.mint(b1)

	err := s.im.Transfer(as(market), token.TransferParams{TokenId: t1, Receiver: b2})
	s.Equal(domain.ErrSenderNotAuthToXfr, err)
	err = s.im.Transfer(as(b2), token.TransferParams{TokenId: t1, Receiver: b2})
	s.Equal(domain.ErrSenderNotAuthToXfr, err)
	err = s.im.Transfer(as(b1), token.TransferParams{TokenId: t1, Receiver: b1})
	s.Equal(domain.ErrReceiverIsOwner, err)
	err = s.im.Transfer(as(b1), token.TransferParams{TokenId: t1, Receiver: "Not Valid"})
	s.Equal(domain.ErrInvalidAccountId, err)
	s.Equal(b1, s.token(t1).Owner)

	s.Require().NoError(s.im.Transfer(as(b1), token.TransferParams{TokenId: t1, Receiver: b2, Memo: ptr.String("gift")}))
	s.Equal(b2, s.token(t1).Owner)
}

func (s *tokenSuite) TestTransferClearsEveryApproval() {
	for _, sender := range []domain.AccountId{b1, market} {
		id := s.mint(b1)
		s.Require().NoError(s.im.Approve(as(b1), id, market, price(100)))

		s.Require().NoError(s.im.Transfer(as(sender), token.TransferParams{TokenId: id, Receiver: b2}))
		got := s.token(id)
		s.Equal(b2, got.Owner)
		s.Empty(got.Approvals)
		s.Equal(uint64(1), got.ApprovalCounter)
	}
}

func (s *tokenSuite) TestTransferRejectsStaleApproval() {
	t1 := s.mint(b1)
	s.Require().NoError(s.im.Approve(as(b1), t1, market, price(100)))
	s.Require().NoError(s.im.RevokeAll(as(b1), t1))
	s.Require().NoError(s.im.Approve(as(b1), t1, market, price(200)))

	err := s.im.Transfer(as(market), token.TransferParams{TokenId: t1, Receiver: b2, ApprovalId: ptr.Uint64(1)})
	s.Equal(domain.ErrStaleApproval, err)
	// the owner holds no approval, so any enforced id is stale
	err = s.im.Transfer(as(b1), token.TransferParams{TokenId: t1, Receiver: b2, ApprovalId: ptr.Uint64(2)})
	s.Equal(domain.ErrStaleApproval, err)
	s.Len(s.token(t1).Approvals, 1)

	s.NoError(s.im.Transfer(as(market), token.TransferParams{TokenId: t1, Receiver: b2, ApprovalId: ptr.Uint64(2)}))
}

func (s *tokenSuite) TestPayout() {
	t1 := s.mint(b1)

	p, err := s.im.Payout(ctx.Background(), t1, decimal.NewFromInt(1000))
	s.Require().NoError(err)
	s.Len(p, 3)
	s.Equal("100", p[creator].String())
	s.Equal("25", p[feeAcct].String())
	s.Equal("875", p[b1].String())

	_, err = s.im.Payout(ctx.Background(), 99, decimal.NewFromInt(1000))
	s.Equal(domain.ErrTokenNotFound, err)
}

func (s *tokenSuite) TestPayoutSumsToAmount() {
	owners := map[string]domain.AccountId{
		"distinct":        b1,
		"creator resells": creator,
		"fee owns":        feeAcct,
	}
	gates := map[string]*gate.Gate{
		"creator distinct": {Id: "G2", Creator: "c2.near", Supply: 1, Royalty: fraction.New(1, 3)},
		"creator is fee":   {Id: "G3", Creator: feeAcct, Supply: 1, Royalty: fraction.New(7, 9)},
	}
	for _, g := range gates {
		s.Require().NoError(s.gates.Insert(ctx.Background(), g))
	}

	for gname, g := range gates {
		for oname, owner := range owners {
			id, err := s.tokens.NextId(ctx.Background())
			s.Require().NoError(err)
			s.Require().NoError(s.tokens.Insert(ctx.Background(), &token.Token{Id: id, GateId: g.Id, Owner: owner}))

			for _, amount := range []int64{0, 1, 7, 999, 1000, 123456789} {
				p, err := s.im.Payout(ctx.Background(), id, decimal.NewFromInt(amount))
				s.Require().NoError(err)
				s.True(p.Total().Equal(decimal.NewFromInt(amount)), "%s/%s/%d", gname, oname, amount)
				s.LessOrEqual(len(p), 3)
				for _, v := range p {
					s.False(v.IsNegative())
				}
			}
		}
	}
}

func (s *tokenSuite) TestTransferWithPayout() {
	t1 := s.mint(b1)
	s.Require().NoError(s.im.Approve(as(b1), t1, market, price(100)))

	p, err := s.im.TransferWithPayout(as(market), token.TransferParams{TokenId: t1, Receiver: b2, ApprovalId: ptr.Uint64(1)}, price(1000))
	s.Require().NoError(err)
	// the seller gets the remainder, not the buyer
	s.True(p[b1].Equal(decimal.NewFromInt(875)))
	s.NotContains(p, b2)
	s.Equal(b2, s.token(t1).Owner)

	p, err = s.im.TransferWithPayout(as(b2), token.TransferParams{TokenId: t1, Receiver: b1}, nil)
	s.Require().NoError(err)
	s.Nil(p)
	s.Equal(b1, s.token(t1).Owner)

	_, err = s.im.TransferWithPayout(as(market), token.TransferParams{TokenId: t1, Receiver: b2}, price(1000))
	s.Equal(domain.ErrSenderNotAuthToXfr, err)
}

func (s *tokenSuite) TestBatchApprovePartialFailure() {
	t1 := s.mint(b1)
	t2 := s.mint(b1)
	s.Require().NoError(s.im.Approve(as(b1), t2, other, price(5)))

	err := s.im.BatchApprove(as(b1), []token.BatchItem{
		{TokenId: t1, MinPrice: price(100)},
		{TokenId: t2, MinPrice: price(999999)},
	}, market)

	var batchErr *token.BatchError
	s.Require().True(errors.As(err, &batchErr))
	s.True(errors.Is(err, domain.ErrBatchFailed))
	s.Equal([]domain.TokenId{t2}, batchErr.FailedTokens())
	s.True(errors.Is(batchErr.Errors[0], domain.ErrTokenAlreadyApprove))
	s.NoError(batchErr.Notify)

	a, ok := s.token(t1).ApprovalOf(market)
	s.Require().True(ok)
	s.True(a.MinPrice.Equal(decimal.NewFromInt(100)))

	s.Require().Len(s.market.batch, 1)
	s.Equal(b1, s.market.batch[0].Owner)
	s.Require().Len(s.market.batch[0].Tokens, 1)
	s.Equal(t1, s.market.batch[0].Tokens[0].TokenId)
	s.Equal(a.ApprovalId, s.market.batch[0].Tokens[0].ApprovalId)
}

func (s *tokenSuite) TestBatchApproveSuccess() {
	items := []token.BatchItem{}
	for i := 0; i < maxBatchSize; i++ {
		items = append(items, token.BatchItem{TokenId: s.mint(b1), MinPrice: price(int64(i + 1))})
	}
	s.Require().NoError(s.im.BatchApprove(as(b1), items, market))
	s.Require().Len(s.market.batch, 1)
	s.Len(s.market.batch[0].Tokens, maxBatchSize)
}

func (s *tokenSuite) TestBatchApproveTooLarge() {
	items := []token.BatchItem{}
	for i := 0; i <= maxBatchSize; i++ {
		items = append(items, token.BatchItem{TokenId: s.mint(b1), MinPrice: price(1)})
	}
	s.Equal(domain.ErrBatchTooLarge, s.im.BatchApprove(as(b1), items, market))
	for _, it := range items {
		s.Empty(s.token(it.TokenId).Approvals)
	}
	s.Empty(s.market.batch)
}

func (s *tokenSuite) TestBatchApproveNotificationFailure() {
	t1 := s.mint(b1)
	s.market.fail = errors.New("market down")

	err := s.im.BatchApprove(as(b1), []token.BatchItem{{TokenId: t1, MinPrice: price(1)}}, market)
	var batchErr *token.BatchError
	s.Require().True(errors.As(err, &batchErr))
	s.Empty(batchErr.Errors)
	s.Error(batchErr.Notify)
	s.Len(s.token(t1).Approvals, 1)
}

func (s *tokenSuite) TestBatchApproveAllFailedSkipsNotification() {
	t1 := s.mint(b1)
	err := s.im.BatchApprove(as(b2), []token.BatchItem{{TokenId: t1, MinPrice: price(1)}, {TokenId: t1}}, market)

	var batchErr *token.BatchError
	s.Require().True(errors.As(err, &batchErr))
	s.Require().Len(batchErr.Errors, 2)
	s.Equal(domain.ErrTokenNotOwnedBy, batchErr.Errors[0].Err)
	s.Equal(domain.ErrMinPriceMissing, batchErr.Errors[1].Err)
	s.Empty(s.market.batch)
}

func (s *tokenSuite) TestReads() {
	t1 := s.mint(b1)
	s.mint(b2)
	s.mint(b1)

	got, err := s.im.Get(ctx.Background(), t1)
	s.Require().NoError(err)
	s.Equal(b1, got.Owner)

	all, err := s.im.Tokens(ctx.Background(), 1, 10)
	s.Require().NoError(err)
	s.Len(all, 2)

	owned, err := s.im.TokensForOwner(ctx.Background(), b1, 0, 10)
	s.Require().NoError(err)
	s.Len(owned, 2)

	n, err := s.im.TotalSupply(ctx.Background())
	s.Require().NoError(err)
	s.Equal(3, n)
	n, err = s.im.SupplyForOwner(ctx.Background(), b2)
	s.Require().NoError(err)
	s.Equal(1, n)

	uri, err := s.im.TokenURI(ctx.Background(), t1)
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/gates/G1", *uri)
	uri, err = s.im.TokenURI(ctx.Background(), 99)
	s.Require().NoError(err)
	s.Nil(uri)

	s.Equal("GATE", s.im.ContractMetadata(ctx.Background()).Symbol)
}

func (s *tokenSuite) TestTokenURIWithTrailingSlash() {
	t1 := s.mint(b1)
	im := s.im.(*impl)
	im.metadata.BaseUri = ptr.String("https://cdn.example.com/")

	uri, err := s.im.TokenURI(ctx.Background(), t1)
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/G1", *uri)

	im.metadata.BaseUri = nil
	uri, err = s.im.TokenURI(ctx.Background(), t1)
	s.Require().NoError(err)
	s.Nil(uri)
}
