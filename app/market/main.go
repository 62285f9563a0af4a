package main

import (
	"github.com/x-xyz/gatemarket/app/internal/setup"
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain/listing"
	"github.com/x-xyz/gatemarket/domain/payment"
	"github.com/x-xyz/gatemarket/service/remote"
	listing_delivery "github.com/x-xyz/gatemarket/stores/listing/delivery/http"
	listing_repository "github.com/x-xyz/gatemarket/stores/listing/repository"
	listing_usecase "github.com/x-xyz/gatemarket/stores/listing/usecase"
	payment_delivery "github.com/x-xyz/gatemarket/stores/payment/delivery/http"
	payment_repository "github.com/x-xyz/gatemarket/stores/payment/repository"
)

const service = "market"

func init() {
	setup.LoadConfig(service)
}

func main() {
	context := ctx.Background()
	infra := setup.NewInfra(context, service)

	var (
		listingRepo  listing.Repo
		purchaseRepo listing.PurchaseRepo
		payer        payment.Payer
	)
	if infra.Query != nil {
		if err := listing_repository.EnsureIndexes(context, infra.Query); err != nil {
			context.WithField("err", err).Panic("listing_repository.EnsureIndexes failed")
		}
		if err := listing_repository.EnsurePurchaseIndexes(context, infra.Query); err != nil {
			context.WithField("err", err).Panic("listing_repository.EnsurePurchaseIndexes failed")
		}
		listingRepo = listing_repository.New(infra.Query)
		purchaseRepo = listing_repository.NewPurchase(infra.Query)
		payer = payment_repository.New(infra.Query)
	} else {
		listingRepo = listing_repository.NewMemory()
		purchaseRepo = listing_repository.NewPurchaseMemory()
		payer = payment_repository.NewMemory()
	}

	for _, p := range setup.Peers(context, "registries") {
		infra.Directory.AddRegistry(p.AccountId, remote.NewHttpRegistry(p.Url, infra.ClientCfg()))
	}

	listingUsecase := listing_usecase.New(&listing_usecase.ListingUseCaseCfg{
		Exec:         infra.Exec,
		ListingRepo:  listingRepo,
		PurchaseRepo: purchaseRepo,
		Payer:        payer,
		Directory:    infra.Directory,
		Dispatcher:   infra.Xcall,
	})

	e, authMiddleware := infra.NewEcho(service)
	listing_delivery.New(e, listingUsecase, authMiddleware)
	payment_delivery.New(e, payer)

	infra.Serve(context, e)
}
