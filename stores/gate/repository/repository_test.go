package repository

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/database/mongoclient"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
	"github.com/x-xyz/gatemarket/domain/gate"
	"github.com/x-xyz/gatemarket/service/query"
)

type repoSuite struct {
	suite.Suite
	newRepo func() gate.Repo
	repo    gate.Repo
}

func TestMemoryRepo(t *testing.T) {
	suite.Run(t, &repoSuite{newRepo: NewMemory})
}

func TestMongoRepo(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}
	client := mongoclient.MustConnectMongoClient(mongoclient.Config{URI: uri, AuthDBName: "admin", DBName: "gate_repo_test", SetSafe: true, PoolSizeMultiplier: 1})
	q := query.New(client)
	suite.Run(t, &repoSuite{newRepo: func() gate.Repo {
		c := ctx.Background()
		if err := client.Database(client.DbName).Collection(string(domain.TableGates)).Drop(c); err != nil {
			t.Fatal(err)
		}
		if err := EnsureIndexes(c, q); err != nil {
			t.Fatal(err)
		}
		return New(q)
	}})
}

func (s *repoSuite) SetupTest() {
	s.repo = s.newRepo()
}

func newGate(id domain.GateId, creator domain.AccountId, supply uint16) *gate.Gate {
	return &gate.Gate{
		Id:           id,
		Creator:      creator,
		Supply:       supply,
		MintedTokens: []domain.TokenId{},
		Royalty:      fraction.New(1, 10),
		Metadata:     gate.Metadata{Title: "title", Copies: supply},
	}
}

func (s *repoSuite) TestInsertAndFind() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newGate("g1", "alice.near", 3)))
	s.Equal(domain.ErrGateAlreadyExists, s.repo.Insert(c, newGate("g1", "bob.near", 1)))

	g, err := s.repo.FindOne(c, "g1")
	s.Require().NoError(err)
	s.Equal(domain.AccountId("alice.near"), g.Creator)
	s.Equal(fraction.New(1, 10), g.Royalty)

	_, err = s.repo.FindOne(c, "g2")
	s.Equal(domain.ErrGateNotFound, err)
}

func (s *repoSuite) TestFindByCreator() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newGate("g2", "alice.near", 1)))
	s.Require().NoError(s.repo.Insert(c, newGate("g1", "alice.near", 1)))
	s.Require().NoError(s.repo.Insert(c, newGate("g3", "bob.near", 1)))

	res, err := s.repo.FindByCreator(c, "alice.near")
	s.Require().NoError(err)
	s.Require().Len(res, 2)
	s.Equal(domain.GateId("g1"), res[0].Id)
	s.Equal(domain.GateId("g2"), res[1].Id)

	res, err = s.repo.FindByCreator(c, "carol.near")
	s.Require().NoError(err)
	s.Empty(res)
}

func (s *repoSuite) TestMintUntilExhausted() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newGate("g1", "alice.near", 2)))

	s.NoError(s.repo.Mint(c, "g1", 0))
	s.NoError(s.repo.Mint(c, "g1", 1))
	s.Equal(domain.ErrGateExhausted, s.repo.Mint(c, "g1", 2))
	s.Equal(domain.ErrGateNotFound, s.repo.Mint(c, "nope", 2))

	g, err := s.repo.FindOne(c, "g1")
	s.Require().NoError(err)
	s.Equal(uint16(0), g.Supply)
	s.Equal([]domain.TokenId{0, 1}, g.MintedTokens)
}

func (s *repoSuite) TestUnmint() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newGate("g1", "alice.near", 2)))
	s.Require().NoError(s.repo.Mint(c, "g1", 0))
	s.Require().NoError(s.repo.Mint(c, "g1", 1))

	s.NoError(s.repo.Unmint(c, "g1", 0))
	s.NoError(s.repo.Unmint(c, "g1", 0))
	s.NoError(s.repo.Unmint(c, "g1", 7))
	s.Equal(domain.ErrGateNotFound, s.repo.Unmint(c, "nope", 1))

	g, err := s.repo.FindOne(c, "g1")
	s.Require().NoError(err)
	s.Equal(uint16(1), g.Supply)
	s.Equal([]domain.TokenId{1}, g.MintedTokens)
}

func (s *repoSuite) TestRemove() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newGate("g1", "alice.near", 2)))
	s.NoError(s.repo.Remove(c, "g1"))
	s.Equal(domain.ErrGateNotFound, s.repo.Remove(c, "g1"))
}
