package repository

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/database/mongoclient"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/service/query"
)

type repoSuite struct {
	suite.Suite
	newRepo func() listing.Repo
	// dropOwnerEntry deletes the by-owner entry of key behind the repo's back
	dropOwnerEntry func(repo listing.Repo, owner domain.AccountId, key listing.Key)
	repo           listing.Repo
}

func TestMemoryRepo(t *testing.T) {
	suite.Run(t, &repoSuite{
		newRepo: NewMemory,
		dropOwnerEntry: func(repo listing.Repo, owner domain.AccountId, key listing.Key) {
			m := repo.(*memory)
			delete(m.byOwner.entries[owner.String()], key)
		},
	})
}

func TestMongoRepo(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}
	client := mongoclient.MustConnectMongoClient(mongoclient.Config{URI: uri, AuthDBName: "admin", DBName: "listing_repo_test", SetSafe: true, PoolSizeMultiplier: 1})
	q := query.New(client)
	suite.Run(t, &repoSuite{
		newRepo: func() listing.Repo {
			c := ctx.Background()
			if err := client.Database(client.DbName).Drop(c); err != nil {
				t.Fatal(err)
			}
			if err := EnsureIndexes(c, q); err != nil {
				t.Fatal(err)
			}
			return New(q)
		},
		dropOwnerEntry: func(_ listing.Repo, owner domain.AccountId, key listing.Key) {
			update := bson.M{"$pull": bson.M{"keys": key}}
			if err := q.CustomPatch(ctx.Background(), domain.TableListingsByOwner, bson.M{"_id": owner}, update, false); err != nil {
				t.Fatal(err)
			}
		},
	})
}

func (s *repoSuite) SetupTest() {
	s.repo = s.newRepo()
}

func newListing(registry domain.AccountId, id domain.TokenId, owner domain.AccountId, gateId domain.GateId) *listing.Listing {
	creator := domain.AccountId("creator.near")
	return &listing.Listing{
		Key:        listing.Key{Registry: registry, TokenId: id},
		Owner:      owner,
		ApprovalId: 1,
		MinPrice:   decimal.NewFromInt(10),
		GateId:     &gateId,
		Creator:    &creator,
		ListedAt:   time.Unix(1600000000, 0).UTC(),
	}
}

func keysOf(ls []*listing.Listing) []listing.Key {
	res := make([]listing.Key, 0, len(ls))
	for _, l := range ls {
		res = append(res, l.Key)
	}
	return res
}

func (s *repoSuite) TestInsertIndexesEverything() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newListing("reg-a.near", 1, "alice.near", "g1")))
	s.Require().NoError(s.repo.Insert(c, newListing("reg-b.near", 1, "alice.near", "g2")))
	s.Require().NoError(s.repo.Insert(c, newListing("reg-a.near", 2, "bob.near", "g1")))

	all, err := s.repo.All(c)
	s.Require().NoError(err)
	s.Equal([]listing.Key{{Registry: "reg-a.near", TokenId: 1}, {Registry: "reg-a.near", TokenId: 2}, {Registry: "reg-b.near", TokenId: 1}}, keysOf(all))

	byOwner, err := s.repo.ByOwner(c, "alice.near")
	s.Require().NoError(err)
	s.Equal([]listing.Key{{Registry: "reg-a.near", TokenId: 1}, {Registry: "reg-b.near", TokenId: 1}}, keysOf(byOwner))

	byRegistry, err := s.repo.ByRegistry(c, "reg-a.near")
	s.Require().NoError(err)
	s.Equal([]listing.Key{{Registry: "reg-a.near", TokenId: 1}, {Registry: "reg-a.near", TokenId: 2}}, keysOf(byRegistry))

	byGate, err := s.repo.ByGate(c, "g1")
	s.Require().NoError(err)
	s.Equal([]listing.Key{{Registry: "reg-a.near", TokenId: 1}, {Registry: "reg-a.near", TokenId: 2}}, keysOf(byGate))

	byCreator, err := s.repo.ByCreator(c, "creator.near")
	s.Require().NoError(err)
	s.Len(byCreator, 3)

	none, err := s.repo.ByOwner(c, "nobody.near")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *repoSuite) TestInsertReplacesExisting() {
	c := ctx.Background()
	s.Require().NoError(s.repo.Insert(c, newListing("reg.near", 7, "alice.near", "g1")))

	moved := newListing("reg.near", 7, "bob.near", "g1")
	moved.ApprovalId = 2
	moved.MinPrice = decimal.NewFromInt(99)
	s.Require().NoError(s.repo.Insert(c, moved))

	got, err := s.repo.Get(c, listing.Key{Registry: "reg.near", TokenId: 7})
	s.Require().NoError(err)
	s.Equal(domain.AccountId("bob.near"), got.Owner)
	s.Equal(uint64(2), got.ApprovalId)
	s.Equal("99", got.MinPrice.String())

	old, err := s.repo.ByOwner(c, "alice.near")
	s.Require().NoError(err)
	s.Empty(old)
	cur, err := s.repo.ByOwner(c, "bob.near")
	s.Require().NoError(err)
	s.Len(cur, 1)
}

func (s *repoSuite) TestRemoveClearsEveryIndex() {
	c := ctx.Background()
	key := listing.Key{Registry: "reg.near", TokenId: 3}
	s.Require().NoError(s.repo.Insert(c, newListing("reg.near", 3, "alice.near", "g1")))

	removed, err := s.repo.Remove(c, key)
	s.Require().NoError(err)
	s.Equal(key, removed.Key)

	_, err = s.repo.Get(c, key)
	s.ErrorIs(err, domain.ErrListingNotFound)
	for _, find := range []func() ([]*listing.Listing, error){
		func() ([]*listing.Listing, error) { return s.repo.All(c) },
		func() ([]*listing.Listing, error) { return s.repo.ByRegistry(c, "reg.near") },
		func() ([]*listing.Listing, error) { return s.repo.ByOwner(c, "alice.near") },
		func() ([]*listing.Listing, error) { return s.repo.ByCreator(c, "creator.near") },
		func() ([]*listing.Listing, error) { return s.repo.ByGate(c, "g1") },
	} {
		res, err := find()
		s.Require().NoError(err)
		s.Empty(res)
	}

	_, err = s.repo.Remove(c, key)
	s.ErrorIs(err, domain.ErrListingNotFound)
}

func (s *repoSuite) TestRemoveWithoutOptionalIndexes() {
	c := ctx.Background()
	l := newListing("reg.near", 4, "alice.near", "g1")
	l.GateId = nil
	l.Creator = nil
	s.Require().NoError(s.repo.Insert(c, l))

	_, err := s.repo.Remove(c, l.Key)
	s.Require().NoError(err)
}

func (s *repoSuite) TestRemoveDetectsCorruptedIndex() {
	c := ctx.Background()
	l := newListing("reg.near", 5, "alice.near", "g1")
	s.Require().NoError(s.repo.Insert(c, l))
	s.dropOwnerEntry(s.repo, "alice.near", l.Key)

	_, err := s.repo.Remove(c, l.Key)
	s.ErrorIs(err, domain.ErrIndexCorrupted)

	got, err := s.repo.Get(c, l.Key)
	s.Require().NoError(err)
	s.Equal(l.Key, got.Key)
	byGate, err := s.repo.ByGate(c, "g1")
	s.Require().NoError(err)
	s.Len(byGate, 1)
}

func TestPurchaseMemory(t *testing.T) {
	s := require.New(t)
	c := ctx.Background()
	repo := NewPurchaseMemory()

	p := &listing.Purchase{Id: "p1", Buyer: "bob.near", State: listing.PurchasePending, Deposit: decimal.NewFromInt(5)}
	s.NoError(repo.Insert(c, p))
	s.ErrorIs(repo.Insert(c, p), query.ErrDuplicateKey)

	p.State = listing.PurchaseSettled
	got, err := repo.FindOne(c, "p1")
	s.NoError(err)
	s.Equal(listing.PurchasePending, got.State)

	s.NoError(repo.Update(c, p))
	got, err = repo.FindOne(c, "p1")
	s.NoError(err)
	s.Equal(listing.PurchaseSettled, got.State)

	_, err = repo.FindOne(c, "missing")
	s.ErrorIs(err, domain.ErrPurchaseNotFound)
}
